package logger

const (
	Main       = "main"
	Provision  = "provision"
	Northbound = "nb"
	Access     = "access"
	Events     = "events"
	OpDB       = "opdb"
	Exporter   = "exporter"
	Config     = "config"
	Watchdog   = "watchdog"

	AccessWorker = "access.worker"
)
