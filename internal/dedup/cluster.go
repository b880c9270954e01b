package dedup

import "github.com/quakestream/quakestream/internal/domain"

// openCluster tracks a cluster under construction. anchor is fixed at
// creation and never re-centered as members join (spec.md §9, "Cluster
// anchor mutability"), correct because records are always processed in
// ascending origin-time order, so the first member is always the earliest.
type openCluster struct {
	anchor    domain.EventRecord
	members   []domain.EventRecord
	bestScore float64
}

func (c *openCluster) toCluster() domain.Cluster {
	return domain.Cluster{Members: c.members, BestScore: c.bestScore}
}

// RunClustering produces clusters from a time-ascending slice of records.
// When useSpatialPrepass is true it runs the preferred path from spec.md
// §4.5 Step 2: a hand-rolled DBSCAN equivalent (min_samples=1, haversine
// metric, eps=100km) that partitions records into spatially connected
// groups before time/magnitude sub-clustering runs within each group. When
// false it runs the Step 4 greedy fallback: sub-clustering applied globally
// with no spatial partition.
func RunClustering(records []domain.EventRecord, useSpatialPrepass bool) []domain.Cluster {
	if !useSpatialPrepass {
		return subCluster(records)
	}

	var clusters []domain.Cluster
	for _, partition := range spatialPartition(records) {
		clusters = append(clusters, subCluster(partition)...)
	}
	return clusters
}

// spatialPartition groups records into spatially connected components under
// a 100km haversine threshold. With min_samples=1, DBSCAN over a single
// distance metric degenerates into single-linkage / transitive-reachability
// clustering, which is exactly what union-find over pairwise distances
// computes; spec.md §9's "greedy fallback" note anticipates this hand-rolled
// equivalent when no DBSCAN library is available.
func spatialPartition(records []domain.EventRecord) [][]domain.EventRecord {
	n := len(records)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if HaversineKM(records[i].Latitude, records[i].Longitude, records[j].Latitude, records[j].Longitude) <= maxDistanceKM {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]domain.EventRecord)
	order := make([]int, 0, n)
	for i, r := range records {
		root := find(i)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], r)
	}

	partitions := make([][]domain.EventRecord, 0, len(order))
	for _, root := range order {
		partitions = append(partitions, groups[root])
	}
	return partitions
}

// subCluster implements spec.md §4.5 Step 3: each record, visited in
// ascending origin-time order, joins the highest-scoring existing cluster
// whose anchor clears MatchThreshold, or opens a new cluster otherwise. Ties
// break toward the earliest-created cluster because the scan keeps the
// first maximum found.
func subCluster(records []domain.EventRecord) []domain.Cluster {
	var open []*openCluster

	for _, r := range records {
		bestIdx := -1
		bestScore := -1.0

		for i, c := range open {
			score := MatchScore(c.anchor, r)
			if score >= MatchThreshold && score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx >= 0 {
			open[bestIdx].members = append(open[bestIdx].members, r)
			if bestScore > open[bestIdx].bestScore {
				open[bestIdx].bestScore = bestScore
			}
			continue
		}

		open = append(open, &openCluster{anchor: r, members: []domain.EventRecord{r}})
	}

	clusters := make([]domain.Cluster, 0, len(open))
	for _, c := range open {
		clusters = append(clusters, c.toCluster())
	}
	return clusters
}
