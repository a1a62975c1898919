package styles

// Tip: To find icons use https://github.com/loichyan/nerdfix

var IconBook = "\U000F00BE"

// Notification icons
var (
	IconNotifyInfo    = "\uf05a"
	IconNotifyWarning = "\uf071"
	IconNotifyError   = "\uf057"
)

// File type icons
var (
	IconFileDefault  = "\uf15b "
	IconFileMarkdown = "\ue73e "
	IconFileHTML     = "\ue736 "
	IconFileEPUB     = IconBook + " "
)
