package metrics

const Namespace = "certer"

const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

const (
	KeyOperationGenerated = "generated"
	KeyOperationReused    = "reused"
	KeyOperationFailed    = "failed"
)
