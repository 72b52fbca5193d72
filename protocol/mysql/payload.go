// Package mysql 实现 MySQL 二进制协议中的定长/变长整数、浮点数与字符串编解码，
// 供代理前端把路由执行结果按 COM_STMT_EXECUTE 二进制行格式返回给客户端。
//
// 所有多字节整数与浮点数均为小端序。
package mysql

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/ceyewan/shardkit/xerrors"
)

// Payload 一个 MySQL 报文的负载，读写共享同一缓冲区
type Payload struct {
	buf *bytes.Buffer
}

// NewPayload 以 data 为初始内容创建 Payload，data 为 nil 时用于写入
func NewPayload(data []byte) *Payload {
	return &Payload{buf: bytes.NewBuffer(data)}
}

// Bytes 返回未读取的内容
func (p *Payload) Bytes() []byte {
	return p.buf.Bytes()
}

// Len 返回未读取的字节数
func (p *Payload) Len() int {
	return p.buf.Len()
}

func (p *Payload) next(n int) ([]byte, error) {
	if p.buf.Len() < n {
		return nil, xerrors.Wrapf(io.ErrUnexpectedEOF, "need %d bytes, have %d", n, p.buf.Len())
	}
	return p.buf.Next(n), nil
}

func (p *Payload) ReadInt1() (uint8, error) {
	b, err := p.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p *Payload) WriteInt1(v uint8) {
	p.buf.WriteByte(v)
}

func (p *Payload) ReadInt2() (uint16, error) {
	b, err := p.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (p *Payload) WriteInt2(v uint16) {
	p.buf.Write(binary.LittleEndian.AppendUint16(nil, v))
}

func (p *Payload) ReadInt3() (uint32, error) {
	b, err := p.next(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

func (p *Payload) WriteInt3(v uint32) {
	p.buf.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16)})
}

func (p *Payload) ReadInt4() (uint32, error) {
	b, err := p.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (p *Payload) WriteInt4(v uint32) {
	p.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func (p *Payload) ReadInt8() (uint64, error) {
	b, err := p.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (p *Payload) WriteInt8(v uint64) {
	p.buf.Write(binary.LittleEndian.AppendUint64(nil, v))
}

// ReadFloat 读取 4 字节 IEEE-754 单精度浮点数
func (p *Payload) ReadFloat() (float32, error) {
	v, err := p.ReadInt4()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (p *Payload) WriteFloat(v float32) {
	p.WriteInt4(math.Float32bits(v))
}

// ReadDouble 读取 8 字节 IEEE-754 双精度浮点数，按位还原（包括 NaN 负载与 -0）
func (p *Payload) ReadDouble() (float64, error) {
	v, err := p.ReadInt8()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (p *Payload) WriteDouble(v float64) {
	p.WriteInt8(math.Float64bits(v))
}

// 长度编码整数的前缀字节
const (
	lenencInt2 = 0xfc
	lenencInt3 = 0xfd
	lenencInt8 = 0xfe
	// lenencNull 作为行数据时表示 NULL
	lenencNull = 0xfb
)

// ReadIntLenenc 读取长度编码整数
func (p *Payload) ReadIntLenenc() (uint64, error) {
	first, err := p.ReadInt1()
	if err != nil {
		return 0, err
	}
	switch {
	case first < lenencNull:
		return uint64(first), nil
	case first == lenencNull:
		return 0, nil
	case first == lenencInt2:
		v, err := p.ReadInt2()
		return uint64(v), err
	case first == lenencInt3:
		v, err := p.ReadInt3()
		return uint64(v), err
	case first == lenencInt8:
		return p.ReadInt8()
	default:
		return 0, xerrors.InvalidArgument("invalid length-encoded integer prefix 0x%x", first)
	}
}

// WriteIntLenenc 写入长度编码整数
func (p *Payload) WriteIntLenenc(v uint64) {
	switch {
	case v < lenencNull:
		p.WriteInt1(uint8(v))
	case v < 1<<16:
		p.WriteInt1(lenencInt2)
		p.WriteInt2(uint16(v))
	case v < 1<<24:
		p.WriteInt1(lenencInt3)
		p.WriteInt3(uint32(v))
	default:
		p.WriteInt1(lenencInt8)
		p.WriteInt8(v)
	}
}

// ReadStringLenenc 读取长度编码字符串
func (p *Payload) ReadStringLenenc() (string, error) {
	b, err := p.ReadBytesLenenc()
	return string(b), err
}

// ReadBytesLenenc 读取长度编码字节串，返回值为拷贝
func (p *Payload) ReadBytesLenenc() ([]byte, error) {
	n, err := p.ReadIntLenenc()
	if err != nil {
		return nil, err
	}
	if n > uint64(p.buf.Len()) {
		return nil, xerrors.Wrapf(io.ErrUnexpectedEOF, "string of %d bytes, have %d", n, p.buf.Len())
	}
	b, _ := p.next(int(n))
	return append([]byte(nil), b...), nil
}

func (p *Payload) WriteStringLenenc(s string) {
	p.WriteIntLenenc(uint64(len(s)))
	p.buf.WriteString(s)
}

func (p *Payload) WriteBytesLenenc(b []byte) {
	p.WriteIntLenenc(uint64(len(b)))
	p.buf.Write(b)
}

// ReadStringNul 读取以 0x00 结尾的字符串
func (p *Payload) ReadStringNul() (string, error) {
	s, err := p.buf.ReadString(0)
	if err != nil {
		return "", xerrors.Wrap(io.ErrUnexpectedEOF, "missing string terminator")
	}
	return s[:len(s)-1], nil
}

func (p *Payload) WriteStringNul(s string) {
	p.buf.WriteString(s)
	p.buf.WriteByte(0)
}
