package contracts

// Exchanges
const (
	ExchangeMatchTopic = "match_topic"
	ExchangeMatchDead  = "match_dlx"
)

// Queues
const (
	QueueMatchJobs = "match_jobs"
	QueueMatchDead = "match_jobs_dead"
)

// Routing patterns
const (
	RouteMatchPrefix = "match." // {offer|request}
)

// Producers
const (
	ProducerAPI    = "api"
	ProducerWorker = "worker"
)
