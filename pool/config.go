// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package pool

// Config enumerates the object-cache settings of spec §6. It is a
// single record shared by the size-classed buffer pool and every
// generic object pool the client constructs.
type Config struct {
	// Size-classed buffer pool (spec §4.1).
	ExtraSmallBlockSize int
	SmallBlockSize      int
	MediumBlockSize     int
	LargeBlockSize      int
	ExtraLargeBlockSize int

	MaxExtraSmallBlocks int
	MaxSmallBlocks      int
	MaxMediumBlocks     int
	MaxLargeBlocks      int
	MaxExtraLargeBlocks int

	// Generic object pools (spec §4.2, §6).
	MaxWriters                  int
	MaxReaders                  int
	MaxMessages                 int
	MaxMessageBuffers           int
	MaxSocketAsyncEventArgs     int
	MaxActionDispatcherTasks    int
	MaxAutoRecyclingArrays      int
	MaxMessageReceivedEventArgs int
}

// DefaultConfig returns the recommended defaults from spec §6.
func DefaultConfig() Config {
	return Config{
		ExtraSmallBlockSize: 16,
		SmallBlockSize:      64,
		MediumBlockSize:     256,
		LargeBlockSize:      1024,
		ExtraLargeBlockSize: 4096,

		MaxExtraSmallBlocks: 2,
		MaxSmallBlocks:      2,
		MaxMediumBlocks:     2,
		MaxLargeBlocks:      2,
		MaxExtraLargeBlocks: 2,

		MaxWriters:                  2,
		MaxReaders:                  2,
		MaxMessages:                 4,
		MaxMessageBuffers:           4,
		MaxSocketAsyncEventArgs:     32,
		MaxActionDispatcherTasks:    256,
		MaxAutoRecyclingArrays:      4,
		MaxMessageReceivedEventArgs: 4,
	}
}

// classSizes returns the five size-class byte sizes in ascending order.
func (c Config) classSizes() [numClasses]int {
	return [numClasses]int{
		c.ExtraSmallBlockSize,
		c.SmallBlockSize,
		c.MediumBlockSize,
		c.LargeBlockSize,
		c.ExtraLargeBlockSize,
	}
}

// classCaps returns the five per-class capacity caps in ascending order.
func (c Config) classCaps() [numClasses]int {
	return [numClasses]int{
		c.MaxExtraSmallBlocks,
		c.MaxSmallBlocks,
		c.MaxMediumBlocks,
		c.MaxLargeBlocks,
		c.MaxExtraLargeBlocks,
	}
}
