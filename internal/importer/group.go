package importer

// group 有序分组中的一组
type group[K comparable, V any] struct {
	key    K
	values []V
}

// groupOrdered 按键分组，组顺序与组内顺序均为首次出现顺序；不修改输入
func groupOrdered[K comparable, V any](items []V, keyOf func(V) K) []group[K, V] {
	index := make(map[K]int)
	var groups []group[K, V]
	for _, item := range items {
		k := keyOf(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group[K, V]{key: k})
		}
		groups[i].values = append(groups[i].values, item)
	}
	return groups
}

// appendUnique 集合语义追加
func appendUnique[T comparable](list []T, v T) []T {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
