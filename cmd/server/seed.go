package main

import (
	"fmt"
	"os"

	compliancestore "trustplane/internal/compliance/store"
)

func seedSubjects(path string, subjects *compliancestore.InMemoryStore) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open memory seed: %w", err)
	}
	defer f.Close()
	return subjects.SeedJSON(f)
}
