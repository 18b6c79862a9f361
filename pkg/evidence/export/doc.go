// Package export writes interaction records as JSON or CSV.
//
// Both exporters satisfy evidence.Exporter and also offer ExportStream for
// use with InteractionStore.QueryStream, so large audit exports never hold
// the whole result set in memory:
//
//	records, errs, err := store.QueryStream(ctx, q)
//	if err != nil {
//	    return err
//	}
//	if err := export.NewCSVExporter(true).ExportStream(ctx, records, w); err != nil {
//	    return err
//	}
//	return <-errs
//
// Exporters return ExportError on encoding or writer failures.
package export
