// Package services holds the shared error taxonomy used to classify
// failures across the generation pipeline.
package services
