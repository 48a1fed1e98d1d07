package lof

// Neighbor is one entry of an object's nearest neighbor list. Each entry is
// owned exclusively by the list of OwnerID; reverse-neighbor lookups return
// copies.
type Neighbor struct {
	OwnerID    int     // id of the object owning the list
	Rank       int     // 0-based position in the owner's list
	NeighborID int     // id of the neighbor itself
	ReachDist  float64 // reachability distance: max(Dist, k-distance of NeighborID)
	Dist       float64 // raw distance between owner and neighbor
}

// NeighborList is an object's neighbor list, ordered ascending by
// (Dist, NeighborID). After every table operation list[i].Rank == i holds.
type NeighborList []Neighbor

// clone returns an independent copy of the list.
func (l NeighborList) clone() NeighborList {
	c := make(NeighborList, len(l))
	copy(c, l)
	return c
}

// RankFor returns the position a candidate neighbor (distance d, id
// candidateID) takes in the list: the first index whose entry is strictly
// farther, with ties on distance broken by the smaller id.
func (l NeighborList) RankFor(d float64, candidateID int) int {
	for i, n := range l {
		if d < n.Dist || (d == n.Dist && candidateID < n.NeighborID) {
			return i
		}
	}
	return len(l)
}
