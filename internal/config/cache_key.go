package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PackagePaperKey returns the cache key for a package's participant-safe paper.
func (r *CacheKeyStruct) PackagePaperKey(packageID string) string {
	return fmt.Sprintf("package:%s:paper", packageID)
}

// PackageCompositionKey returns the cache key for a package's full question
// composition including answer keys. Server-side only, never sent to clients.
func (r *CacheKeyStruct) PackageCompositionKey(packageID string) string {
	return fmt.Sprintf("package:%s:composition", packageID)
}

// LeaderboardTopKey returns the cache key for a package's top-N board.
func (r *CacheKeyStruct) LeaderboardTopKey(packageID string) string {
	return fmt.Sprintf("package:%s:leaderboard:top", packageID)
}

var CacheKey = NewCacheKeyStruct()
