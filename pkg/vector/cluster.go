package vector

import "math"

// CosineSimilarity computes the cosine similarity of two vectors. Returns 0
// for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// clusterBySimilarity greedily groups entities: each unassigned entity seeds
// a cluster and pulls in every later unassigned entity within minSimilarity
// of the seed. Clusters smaller than minClusterSize are dropped.
func clusterBySimilarity(ids []string, embeddings [][]float32, minSimilarity float64, minClusterSize int) [][]string {
	if minClusterSize < 2 {
		minClusterSize = 2
	}

	assigned := make([]bool, len(ids))
	clusters := make([][]string, 0)

	for i := range ids {
		if assigned[i] {
			continue
		}
		cluster := []string{ids[i]}
		assigned[i] = true

		for j := i + 1; j < len(ids); j++ {
			if assigned[j] {
				continue
			}
			if CosineSimilarity(embeddings[i], embeddings[j]) >= minSimilarity {
				cluster = append(cluster, ids[j])
				assigned[j] = true
			}
		}

		if len(cluster) >= minClusterSize {
			clusters = append(clusters, cluster)
		}
	}

	return clusters
}
