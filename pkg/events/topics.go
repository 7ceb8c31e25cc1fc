package events

const (
	TopicProvisioning = "osvolt:events:provisioning"
)
