package config

type WorkerKeyStruct struct {
	NotifyResultsQueue string
}

// WorkerKey names the Redis lists consumed by background workers.
var WorkerKey = &WorkerKeyStruct{
	NotifyResultsQueue: "notify_results_queue",
}
