// Package retention removes audit records older than the retention period.
//
// Each prune run:
//
//  1. Computes cutoff = now - RetentionDays
//  2. Optionally streams expiring records into a JSON archive file
//  3. Deletes records with timestamp < cutoff in batches of MaxDeleteBatch
//
// A RetentionDays of 0 disables pruning. Pruning is driven by a cron
// expression:
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    RetentionDays:       2555,
//	    PruneSchedule:       "0 3 * * *",
//	    ArchiveBeforeDelete: true,
//	    ArchivePath:         "data/archives/",
//	    MaxDeleteBatch:      1000,
//	})
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
//
// Failures are returned as evidence.RetentionError.
package retention
