package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 0, 0}, b: []float32{1, 0, 0}, want: 1},
		{name: "orthogonal", a: []float32{1, 0, 0}, b: []float32{0, 1, 0}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "scaled copies", a: []float32{1, 2, 3}, b: []float32{2, 4, 6}, want: 1},
		{name: "mismatched lengths", a: []float32{1, 2}, b: []float32{1, 2, 3}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClusterBySimilarity(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	embeddings := [][]float32{
		{1, 0, 0},      // a
		{0.99, 0.1, 0}, // b, close to a
		{0, 1, 0},      // c
		{0.1, 0.99, 0}, // d, close to c
		{0, 0, 1},      // e, alone
	}

	clusters := clusterBySimilarity(ids, embeddings, 0.9, 2)

	if len(clusters) != 2 {
		t.Fatalf("cluster count = %d, want 2", len(clusters))
	}
	if clusters[0][0] != "a" || clusters[0][1] != "b" {
		t.Errorf("first cluster = %v, want [a b]", clusters[0])
	}
	if clusters[1][0] != "c" || clusters[1][1] != "d" {
		t.Errorf("second cluster = %v, want [c d]", clusters[1])
	}
}

func TestClusterBySimilarityDropsSingletons(t *testing.T) {
	ids := []string{"a", "b"}
	embeddings := [][]float32{
		{1, 0},
		{0, 1},
	}

	clusters := clusterBySimilarity(ids, embeddings, 0.9, 2)
	if len(clusters) != 0 {
		t.Errorf("cluster count = %d, want 0 when nothing groups", len(clusters))
	}
}

func TestClusterBySimilarityMinSizeFloor(t *testing.T) {
	ids := []string{"a", "b", "c"}
	embeddings := [][]float32{
		{1, 0},
		{1, 0},
		{0, 1},
	}

	// minClusterSize below 2 is raised to 2, so "c" never forms a cluster
	// on its own.
	clusters := clusterBySimilarity(ids, embeddings, 0.9, 0)
	if len(clusters) != 1 {
		t.Fatalf("cluster count = %d, want 1", len(clusters))
	}
	if len(clusters[0]) != 2 {
		t.Errorf("cluster size = %d, want 2", len(clusters[0]))
	}
}
