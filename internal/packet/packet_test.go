package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	w := NewWriter(64)
	w.WriteByte(0xAB)
	w.WriteInt8(-5)
	w.WriteUint16(0xBEEF)
	w.WriteInt16(-1234)
	w.WriteUint32(0xDEADBEEF)
	w.WriteInt32(-123456)
	w.WriteUint64(0x0123456789ABCDEF)
	w.WriteInt64(-9999999999)
	w.WriteBool(true)
	w.WriteBool(false)

	r := NewReaderBytes(w.Bytes())

	b, err := r.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0xAB), b)

	i8, err := r.ReadInt8()
	require.NoError(t, err)
	require.Equal(t, int8(-5), i8)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	require.Equal(t, uint16(0xBEEF), u16)

	i16, err := r.ReadInt16()
	require.NoError(t, err)
	require.Equal(t, int16(-1234), i16)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), u32)

	i32, err := r.ReadInt32()
	require.NoError(t, err)
	require.Equal(t, int32(-123456), i32)

	u64, err := r.ReadUint64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0123456789ABCDEF), u64)

	i64, err := r.ReadInt64()
	require.NoError(t, err)
	require.Equal(t, int64(-9999999999), i64)

	boolTrue, err := r.ReadBool()
	require.NoError(t, err)
	require.True(t, boolTrue)

	boolFalse, err := r.ReadBool()
	require.NoError(t, err)
	require.False(t, boolFalse)

	require.Zero(t, r.Remaining())
}

func TestStringRoundTrip(t *testing.T) {
	w := NewWriter(32)
	w.WriteString("Hello World")
	r := NewReaderBytes(w.Bytes())
	s, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "Hello World", s)
}

func TestEmptyStringRoundTrip(t *testing.T) {
	w := NewWriter(8)
	w.WriteString("")
	r := NewReaderBytes(w.Bytes())
	s, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "", s)
}

func TestNegativeStringLengthIsFormatError(t *testing.T) {
	buf := []byte{0xFF, 0xFF} // int16 length -1
	r := NewReaderBytes(buf)
	_, err := r.ReadString()
	require.ErrorIs(t, err, ErrNegativeLength)
}

func TestFixedStringRoundTrip(t *testing.T) {
	w := NewWriter(16)
	require.NoError(t, w.WriteFixedString("Bob", 12))
	r := NewReaderBytes(w.Bytes())
	s, err := r.ReadFixedString(12)
	require.NoError(t, err)
	require.Equal(t, "Bob\x00\x00\x00\x00\x00\x00\x00\x00\x00", s)
}

func TestFixedStringTooLarge(t *testing.T) {
	w := NewWriter(16)
	err := w.WriteFixedString("TwelveChars!", 12)
	require.ErrorIs(t, err, ErrStringTooLarge)
}

func TestUint128RoundTrip(t *testing.T) {
	w := NewWriter(16)
	var v [16]byte
	for i := range v {
		v[i] = byte(i)
	}
	w.WriteUint128(v)
	r := NewReaderBytes(w.Bytes())
	got, err := r.ReadUint128()
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestDurationRoundTrip(t *testing.T) {
	w := NewWriter(8)
	w.WriteDurationMillis16(1500)
	w.WriteDurationMillis32(90000)
	r := NewReaderBytes(w.Bytes())
	d16, err := r.ReadDurationMillis16()
	require.NoError(t, err)
	require.Equal(t, int64(1500), d16.Milliseconds())
	d32, err := r.ReadDurationMillis32()
	require.NoError(t, err)
	require.Equal(t, int64(90000), d32.Milliseconds())
}

func TestTruncatedReadFails(t *testing.T) {
	r := NewReaderBytes([]byte{0x01})
	_, err := r.ReadUint32()
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDetachProducesPacket(t *testing.T) {
	w := NewWriter(8)
	w.WriteUint16(1234)
	w.WriteString("ping")
	p := w.Detach()
	defer p.Dispose()

	require.Equal(t, 8, p.Len())
	r := NewReader(p)
	v, err := r.ReadUint16()
	require.NoError(t, err)
	require.Equal(t, uint16(1234), v)
}

func TestPacketDisposeIsSingleUse(t *testing.T) {
	p := Rent(4)
	require.NoError(t, p.Dispose())
	require.ErrorIs(t, p.Dispose(), ErrAlreadyDisposed)
}

func TestOpcodeReadsLeadingUint16(t *testing.T) {
	w := NewWriter(4)
	w.WriteUint16(0x00A1)
	w.WriteByte(0xFF)
	p := w.Detach()
	defer p.Dispose()
	require.Equal(t, uint16(0x00A1), p.Opcode())
}
