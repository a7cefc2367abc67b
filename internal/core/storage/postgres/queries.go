package postgres

// Fixed statements; the filtered statements are assembled in builder.go.

const (
	// querySchemaCheck verifies migrations ran before the service starts.
	querySchemaCheck = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'frames'
		)
	`

	// queryApproxTotalRows reads the planner-maintained row statistic for the
	// whole table. Cheap, always available once the table has been analyzed,
	// and close enough for a count marked as an estimate.
	queryApproxTotalRows = `
		SELECT reltuples::bigint
		FROM pg_class
		WHERE relname = 'frames'
	`
)
