package application

import (
	"hash/fnv"
	"sync"
)

const lockShards = 64

// keyedMutex serializes work per session key. Striping bounds memory while
// keeping contention between distinct keys unlikely.
type keyedMutex struct {
	shards [lockShards]sync.Mutex
}

func (m *keyedMutex) lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	shard := &m.shards[h.Sum32()%lockShards]
	shard.Lock()
	return shard.Unlock
}
