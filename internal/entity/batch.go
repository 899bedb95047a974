package entity

// BatchGroup is the ordered set of remote references destined for one local
// cache folder.
type BatchGroup struct {
	Local   string
	Remotes []string
}

// Batch groups remote fetch targets by shared local destination. Groups keep
// the order in which their first timestamp was added, remotes keep timestamp
// order within a group.
type Batch struct {
	groups []*BatchGroup
	index  map[string]int
}

func (b *Batch) Add(local, remote string) {
	if b.index == nil {
		b.index = make(map[string]int)
	}

	i, ok := b.index[local]
	if !ok {
		i = len(b.groups)
		b.groups = append(b.groups, &BatchGroup{Local: local})
		b.index[local] = i
	}

	b.groups[i].Remotes = append(b.groups[i].Remotes, remote)
}

func (b *Batch) Groups() []*BatchGroup {
	return b.groups
}

func (b *Batch) RemoteCount() int {
	var n int
	for _, g := range b.groups {
		n += len(g.Remotes)
	}

	return n
}
