package buildinfo

const Name = "walkroute"

var (
    Version = "dev"
    Commit  = ""
    BuiltAt = ""
)

func Info() map[string]string {
    return map[string]string{
        "name":    Name,
        "version": Version,
        "commit":  Commit,
        "builtAt": BuiltAt,
    }
}
