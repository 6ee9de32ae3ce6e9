package light

// NibbleCube хранит 4096 значений [0,15] секции 16³ по 4 бита на позицию.
// Упаковка: индекс y<<7 | z<<3 | x>>1, чётный x — младший полубайт.
type NibbleCube [2048]uint8

// Get возвращает значение по локальным координатам секции
func (c *NibbleCube) Get(x, y, z int) uint8 {
	index := uint32(y)<<7 | uint32(z)<<3 | uint32(x)>>1
	if x&1 == 1 {
		return c[index] >> 4
	}
	return c[index] & 0xF
}

// Set устанавливает значение по локальным координатам секции
func (c *NibbleCube) Set(x, y, z int, v uint8) {
	index := uint32(y)<<7 | uint32(z)<<3 | uint32(x)>>1
	if x&1 == 1 {
		c[index] = c[index]&0xF | v<<4
	} else {
		c[index] = c[index]&0xF0 | v
	}
}

// Bytes возвращает копию упакованных данных (для сохранения)
func (c *NibbleCube) Bytes() []byte {
	out := make([]byte, len(c))
	copy(out, c[:])
	return out
}

// FromBytes восстанавливает куб из упакованных данных
func (c *NibbleCube) FromBytes(data []byte) {
	copy(c[:], data)
}
