package main

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/leoetlino/dolphin/sffs"
)

// nandReport and directoryReport mirror sffs.NandStats/sffs.DirectoryStats
// with yaml tags: the engine's own types stay free of presentation
// concerns, matching how the rest of the package keeps serialization
// tags out of its core types.
type nandReport struct {
	ClusterSize      uint32 `yaml:"cluster_size"`
	FreeClusters     uint32 `yaml:"free_clusters"`
	ReservedClusters uint32 `yaml:"reserved_clusters"`
	BadClusters      uint32 `yaml:"bad_clusters"`
	UsedClusters     uint32 `yaml:"used_clusters"`
	FreeInodes       uint32 `yaml:"free_inodes"`
	UsedInodes       uint32 `yaml:"used_inodes"`
}

type directoryReport struct {
	Path         string `yaml:"path"`
	UsedClusters uint32 `yaml:"used_clusters"`
	UsedInodes   uint32 `yaml:"used_inodes"`
}

func writeNandReport(w io.Writer, stats sffs.NandStats) error {
	return yaml.NewEncoder(w).Encode(nandReport{
		ClusterSize:      stats.ClusterSize,
		FreeClusters:     stats.FreeClusters,
		ReservedClusters: stats.ReservedClusters,
		BadClusters:      stats.BadClusters,
		UsedClusters:     stats.UsedClusters,
		FreeInodes:       stats.FreeInodes,
		UsedInodes:       stats.UsedInodes,
	})
}

func writeDirectoryReport(w io.Writer, path string, stats sffs.DirectoryStats) error {
	return yaml.NewEncoder(w).Encode(directoryReport{
		Path:         path,
		UsedClusters: stats.UsedClusters,
		UsedInodes:   stats.UsedInodes,
	})
}
