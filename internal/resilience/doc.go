// Package resilience holds the fault tolerance building blocks shared by the
// outbound integrations: circuit breakers around the AI providers, the CMS
// REST API, and feed or sitemap hosts, plus retry with backoff for the calls
// worth repeating.
//
// A protected call reads as:
//
//	cb := circuitbreaker.New(circuitbreaker.CMSConfig())
//	result, err := cb.Execute(func() (any, error) {
//	    return client.ListAllPosts(ctx, status)
//	})
//
//	err := retry.Do(ctx, retry.Defaults(), func() error {
//	    return publishDraft(ctx, draft)
//	})
package resilience
