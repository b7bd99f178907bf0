package store

import "fmt"

func errDimension(want, got int) error {
	return fmt.Errorf("vector dimension mismatch: expected %d, got %d", want, got)
}

func errEmptyVector(id string) error {
	return fmt.Errorf("entry %s has an empty vector", id)
}
