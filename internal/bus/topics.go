package bus

const (
	TopicStorageChanged = "storage.changed"
	TopicSessionChanged = "session.changed"
	TopicQueryUpdated   = "query.updated"
	TopicServerStatus   = "server.status"
)
