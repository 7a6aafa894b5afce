package consts

const (
	IMConversationKey      = "im:conversation:"
	IMConversationListKey  = "im:conversations"
	ConversationSummaryKey = "im:summary:list:"
	ConversationSummaryGen = "im:summary:gen"
)

const (
	DeliverySimulationLock = "lock:delivery:simulation"
)
