package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcode_String(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{NOP, "nop"},
		{ALOAD, "aload"},
		{ILOAD0, "iload_0"},
		{ASTORE3, "astore_3"},
		{LDC2W, "ldc2_w"},
		{INVOKEINTERFACE, "invokeinterface"},
		{GOTOW, "goto_w"},
		{Opcode(0xCB), "unknown_cb"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestOpcode_Valid(t *testing.T) {
	assert.True(t, RETURN.Valid())
	assert.True(t, MULTIANEWARRAY.Valid())
	assert.False(t, Opcode(0xBA+0x11).Valid())
	assert.False(t, Opcode(0xFF).Valid())
}

func TestParseTag(t *testing.T) {
	tag, ok := ParseTag("frame")
	assert.True(t, ok)
	assert.Equal(t, TagFrame, tag)
	assert.Equal(t, "lookupswitch", TagLookupSwitch.String())

	_, ok = ParseTag("bogus")
	assert.False(t, ok)
}
