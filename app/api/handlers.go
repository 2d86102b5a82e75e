package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/cfg"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/fetch"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/tasks"
)

func NewHandler(store *catalog.Store, taxonomy *catalog.Taxonomy, scorer *catalog.DealScorer,
	normalizer *catalog.Normalizer, coordinator *fetch.Coordinator, fetcher *fetch.PagedFetcher,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		store:       store,
		taxonomy:    taxonomy,
		scorer:      scorer,
		normalizer:  normalizer,
		coordinator: coordinator,
		fetcher:     fetcher,
		scheduler:   scheduler,
	}
}

func filterStateFromQuery(c *gin.Context) catalog.FilterState {
	state := catalog.DefaultFilterState()

	if day := c.Query("day"); day != "" {
		state.Day = day
	}
	if timeOfDay := c.Query("time"); timeOfDay != "" {
		state.Time = timeOfDay
	}
	if age := c.Query("age"); age != "" {
		state.Age = age
	}
	if category := c.Query("category"); category != "" {
		state.Category = category
	}
	if price := c.Query("price"); price != "" {
		state.Price = price
	}
	if kind := c.Query("kind"); kind != "" {
		state.Kind = kind
	}

	return state
}

func (h *Handler) GetEvents(c *gin.Context) {
	state := filterStateFromQuery(c)
	events := h.store.Events(state, c.Query("q"))

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  len(events),
	})
}

func (h *Handler) GetEventsGrouped(c *gin.Context) {
	state := filterStateFromQuery(c)
	groups := h.store.GroupByDate(h.store.Events(state, c.Query("q")))

	c.JSON(http.StatusOK, gin.H{
		"groups": groups,
		"total":  len(groups),
	})
}

func (h *Handler) GetDeals(c *gin.Context) {
	state := filterStateFromQuery(c)
	deals := h.store.Deals(state, c.Query("q"))

	entries := make([]gin.H, 0, len(deals))
	for _, deal := range deals {
		entries = append(entries, gin.H{
			"deal":    deal,
			"savings": h.scorer.SavingsDisplay(deal),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"deals": entries,
		"total": len(entries),
	})
}

func (h *Handler) GetServices(c *gin.Context) {
	businesses := h.store.Businesses(c.Query("q"))

	c.JSON(http.StatusOK, gin.H{
		"services": businesses,
		"total":    len(businesses),
	})
}

func (h *Handler) GetCategories(c *gin.Context) {
	categories := h.taxonomy.Categories()

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"total":      len(categories),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	for collection, count := range h.store.Counts() {
		health[string(collection)] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	hits, misses := h.coordinator.Stats()

	collections := make(map[string]interface{})
	for collection, count := range h.store.Counts() {
		info := map[string]interface{}{
			"count": count,
		}
		if refreshed, ok := h.store.LastRefreshed(collection); ok {
			info["last_refreshed_at"] = refreshed.Format(time.RFC3339)
		}
		if entry, ok := h.coordinator.Entry(string(collection)); ok {
			info["last_fetched_at"] = entry.LastFetchedAt.Format(time.RFC3339)
		}
		collections[string(collection)] = info
	}

	c.JSON(http.StatusOK, gin.H{
		"collections":  collections,
		"cache_hits":   hits,
		"cache_misses": misses,
	})
}

// PostVisibility is the external became-visible trigger: a non-forced
// refresh of every collection, TTL still applies.
func (h *Handler) PostVisibility(c *gin.Context) {
	h.scheduler.EnqueueRefreshAll(false)

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Refresh enqueued for all collections",
	})
}

func (h *Handler) APIListCollections(c *gin.Context) {
	appCfg := cfg.Get()

	collections := make([]gin.H, 0, len(catalog.Collections()))
	for collection, count := range h.store.Counts() {
		info := gin.H{
			"name":  string(collection),
			"count": count,
			"ttl":   appCfg.TTLFor(string(collection)).String(),
		}
		if refreshed, ok := h.store.LastRefreshed(collection); ok {
			info["last_refreshed_at"] = refreshed.Format(time.RFC3339)
		}
		collections = append(collections, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"collections": collections,
		"total":       len(collections),
	})
}

func (h *Handler) APIRefreshCollection(c *gin.Context) {
	name := c.Param("name")

	collection, ok := parseCollection(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown collection"})
		return
	}

	task := tasks.NewRefreshCollectionTask(collection, cfg.Get().TTLFor(name), true,
		h.coordinator, h.fetcher, h.normalizer, h.store)

	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing refresh task", "collection", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue refresh task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Forced refresh enqueued",
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func (h *Handler) APIReclassify(c *gin.Context) {
	task := tasks.NewReclassifyTask(h.taxonomy, h.store)

	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing reclassify task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue reclassify task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Taxonomy reload and reclassify enqueued",
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func parseCollection(name string) (catalog.Collection, bool) {
	for _, collection := range catalog.Collections() {
		if string(collection) == name {
			return collection, true
		}
	}
	return "", false
}
