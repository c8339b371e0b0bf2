// Package linkdex embeds the Arabic investment search engine in a Go
// program. It loads precomputed activity, industrial zone and Decision 104
// vectors from a dataset directory, answers free-text queries across the
// three collections and links candidates to their full records.
//
//	client, err := linkdex.New(
//	    linkdex.WithDataset("data"),
//	    linkdex.WithBadger(".data/badger"),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	resp, err := client.Search(ctx, "عايز أفتح مصنع أغذية في العاشر", linkdex.SearchOptions{})
//	for _, hit := range resp.Activities {
//	    fmt.Println(hit.ID, hit.Display.Title, hit.Notes)
//	}
//
// Without WithEmbedder or WithOpenAI the engine answers from the keyword
// index only. Learned patterns and cached responses are kept in the
// configured store across restarts.
package linkdex
