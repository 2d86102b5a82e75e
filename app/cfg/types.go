package cfg

type Cfg struct {
	// Data source configuration
	SourceKind string
	SourceURL  string
	SourceDB   string

	// Application configuration
	Port              string
	APIAccessKey      string
	TaxonomyFile      string
	IngestFeeds       []string
	IngestInterval    int
	WorkerCount       int
	SchedulerInterval int

	// Aggregation policy
	Timezone        string
	PageSize        int
	MaxRows         int
	EventsTTL       int
	DealsTTL        int
	BusinessesTTL   int
	RepairHourMax   int
	StartRepairHour int
	EndRepairHour   int

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
