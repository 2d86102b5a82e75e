package api

import (
	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/fetch"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/tasks"
)

type Handler struct {
	store       *catalog.Store
	taxonomy    *catalog.Taxonomy
	scorer      *catalog.DealScorer
	normalizer  *catalog.Normalizer
	coordinator *fetch.Coordinator
	fetcher     *fetch.PagedFetcher
	scheduler   tasks.TaskSchedulerInterface
}
