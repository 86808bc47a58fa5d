package kafka

// Topic definitions for Kafka event streaming
const (
	// Market data events
	TopicMarketTicks = "market.ticks"

	// News events
	TopicNewsIngested = "news.ingested"
)

// AllTopics lists every topic the service produces to
func AllTopics() []string {
	return []string{TopicMarketTicks, TopicNewsIngested}
}
