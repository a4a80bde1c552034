package agui

// Version is the current SDK version.
const Version = "0.1.0"

func userAgent() string {
	return "agui-go/" + Version
}
