package pipeline

import "github.com/entrhq/litscreen/pkg/types"

// GroupClusters groups records by duplicate cluster id. Clusters appear in
// the order their first member was seen and members keep their input order.
// Records without a cluster id are dropped.
func GroupClusters(records []types.Record) []types.Cluster {
	index := make(map[string]int)
	var clusters []types.Cluster

	for _, rec := range records {
		if rec.ClusterID == "" {
			continue
		}
		i, ok := index[rec.ClusterID]
		if !ok {
			i = len(clusters)
			index[rec.ClusterID] = i
			clusters = append(clusters, types.Cluster{ID: rec.ClusterID})
		}
		clusters[i].Members = append(clusters[i].Members, rec)
	}
	return clusters
}
