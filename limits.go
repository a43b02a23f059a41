package pacx

type Limits struct {
	MaxArchiveSize  uint64 // whole file, bounded by the u32 size field
	MaxTypes        int
	MaxFilesPerType int
	MaxProxies      int
	MaxSplits       int
	MaxNameLen      int
	MaxEntrySize    uint64
}

func defaultLimits() Limits {
	return Limits{
		MaxArchiveSize:  1<<32 - 1,
		MaxTypes:        10_000,
		MaxFilesPerType: 100_000,
		MaxProxies:      100_000,
		MaxSplits:       1_000,
		MaxNameLen:      1 << 10,
		MaxEntrySize:    2 << 30, // 2 GiB
	}
}

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxArchiveSize == 0 || l.MaxArchiveSize > d.MaxArchiveSize {
		l.MaxArchiveSize = d.MaxArchiveSize
	}
	if l.MaxTypes == 0 {
		l.MaxTypes = d.MaxTypes
	}
	if l.MaxFilesPerType == 0 {
		l.MaxFilesPerType = d.MaxFilesPerType
	}
	if l.MaxProxies == 0 {
		l.MaxProxies = d.MaxProxies
	}
	if l.MaxSplits == 0 {
		l.MaxSplits = d.MaxSplits
	}
	if l.MaxNameLen == 0 {
		l.MaxNameLen = d.MaxNameLen
	}
	if l.MaxEntrySize == 0 {
		l.MaxEntrySize = d.MaxEntrySize
	}
	return l
}
