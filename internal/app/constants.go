package app

const (
	Name           = "ponyexpress"
	DisplayName    = "Pony Express"
	ConfigFilename = "config.json"
	DBFilename     = "storage.db"
	LogFilename    = "app.log"
)
