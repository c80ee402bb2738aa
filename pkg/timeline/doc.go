// Package timeline assembles the full post history of one account from a
// paginated, newest-first timeline.
//
// Pages are requested with a max_id cursor set just below the oldest post
// collected so far. Collection stops when a page comes back empty, when the
// iteration budget is spent, or when the upstream stops returning older
// posts. Ids already collected are skipped.
//
// Example:
//
//	collector := timeline.NewCollector(client, log)
//	posts, err := collector.CollectAll(ctx, "nasa", 200, 900)
//	if err != nil {
//		return err
//	}
package timeline
