package config

// Map of job names to job functions
type CronJob struct {
	Schedule string
	Job      func(...string)
}

// Static jobs keyed by lowercase name. Packages with DB-dependent jobs
// self-register through cron.Register instead (see cron/jobs).
var CronJobs = map[string]CronJob{
	// Add static jobs here
}
