// Package freshness decides, per employer, whether a re-crawl is
// worthwhile.
//
// The policy is completeness-only: re-crawl when there is missing data to
// repair, never because records are old. Age-based re-crawling of complete
// postings only multiplies downstream writes without new information.
package freshness

import (
	"fmt"

	"github.com/atlasjobs/harvester/pkg/jobstore"
)

// Action is the per-employer crawl decision.
type Action string

const (
	// Skip means every known posting for the employer is complete.
	Skip Action = "skip"

	// FullCrawl means the employer has never been crawled or has at
	// least one incomplete posting to repair.
	FullCrawl Action = "full_crawl"
)

// Decision pairs the action with an operator-readable reason.
type Decision struct {
	Action Action
	Reason string
}

// Evaluate is a pure function over the employer's current crawl state.
func Evaluate(state jobstore.CrawlState) Decision {
	if state.Total == 0 {
		return Decision{
			Action: FullCrawl,
			Reason: "no known jobs, first crawl",
		}
	}
	if state.Incomplete == 0 {
		return Decision{
			Action: Skip,
			Reason: fmt.Sprintf("all %d known jobs complete", state.Total),
		}
	}
	return Decision{
		Action: FullCrawl,
		Reason: fmt.Sprintf("%d of %d known jobs incomplete", state.Incomplete, state.Total),
	}
}
