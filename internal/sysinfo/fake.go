package sysinfo

import "context"

// Static returns fixed samples, one per call, repeating the last. Used in tests.
type Static struct {
	Disks    []DiskUsage
	Memories []Memory
	Err      error
}

func (s *Static) Disk(_ context.Context, path string) (DiskUsage, error) {
	if s.Err != nil || len(s.Disks) == 0 {
		return DiskUsage{}, s.Err
	}
	d := s.Disks[0]
	if len(s.Disks) > 1 {
		s.Disks = s.Disks[1:]
	}
	d.Path = path
	return d, nil
}

func (s *Static) Memory(context.Context) (Memory, error) {
	if s.Err != nil || len(s.Memories) == 0 {
		return Memory{}, s.Err
	}
	m := s.Memories[0]
	if len(s.Memories) > 1 {
		s.Memories = s.Memories[1:]
	}
	return m, nil
}
