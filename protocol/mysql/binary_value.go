package mysql

import (
	"github.com/ceyewan/shardkit/xerrors"
	"github.com/spf13/cast"
)

// BinaryProtocolValue 二进制行协议中某一列类型的编解码
type BinaryProtocolValue interface {
	Read(p *Payload) (any, error)
	Write(p *Payload, value any) error
}

// Double 8 字节双精度浮点
type Double struct{}

func (Double) Read(p *Payload) (any, error) {
	return p.ReadDouble()
}

func (Double) Write(p *Payload, value any) error {
	v, err := cast.ToFloat64E(value)
	if err != nil {
		return xerrors.InvalidArgument("double column: %v", err)
	}
	p.WriteDouble(v)
	return nil
}

// Float 4 字节单精度浮点
type Float struct{}

func (Float) Read(p *Payload) (any, error) {
	return p.ReadFloat()
}

func (Float) Write(p *Payload, value any) error {
	v, err := cast.ToFloat32E(value)
	if err != nil {
		return xerrors.InvalidArgument("float column: %v", err)
	}
	p.WriteFloat(v)
	return nil
}

// Int8 8 字节整数（LONGLONG）
type Int8 struct{}

func (Int8) Read(p *Payload) (any, error) {
	v, err := p.ReadInt8()
	return int64(v), err
}

func (Int8) Write(p *Payload, value any) error {
	v, err := cast.ToInt64E(value)
	if err != nil {
		return xerrors.InvalidArgument("int8 column: %v", err)
	}
	p.WriteInt8(uint64(v))
	return nil
}

// Int4 4 字节整数（LONG、INT24）
type Int4 struct{}

func (Int4) Read(p *Payload) (any, error) {
	v, err := p.ReadInt4()
	return int32(v), err
}

func (Int4) Write(p *Payload, value any) error {
	v, err := cast.ToInt32E(value)
	if err != nil {
		return xerrors.InvalidArgument("int4 column: %v", err)
	}
	p.WriteInt4(uint32(v))
	return nil
}

// Int2 2 字节整数（SHORT、YEAR）
type Int2 struct{}

func (Int2) Read(p *Payload) (any, error) {
	v, err := p.ReadInt2()
	return int16(v), err
}

func (Int2) Write(p *Payload, value any) error {
	v, err := cast.ToInt16E(value)
	if err != nil {
		return xerrors.InvalidArgument("int2 column: %v", err)
	}
	p.WriteInt2(uint16(v))
	return nil
}

// Int1 1 字节整数（TINY）
type Int1 struct{}

func (Int1) Read(p *Payload) (any, error) {
	v, err := p.ReadInt1()
	return int8(v), err
}

func (Int1) Write(p *Payload, value any) error {
	v, err := cast.ToInt8E(value)
	if err != nil {
		return xerrors.InvalidArgument("int1 column: %v", err)
	}
	p.WriteInt1(uint8(v))
	return nil
}

// StringLenenc 长度编码字符串（字符串、DECIMAL、BLOB 等）
type StringLenenc struct{}

func (StringLenenc) Read(p *Payload) (any, error) {
	return p.ReadStringLenenc()
}

func (StringLenenc) Write(p *Payload, value any) error {
	if b, ok := value.([]byte); ok {
		p.WriteBytesLenenc(b)
		return nil
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return xerrors.InvalidArgument("string column: %v", err)
	}
	p.WriteStringLenenc(s)
	return nil
}

// ValueFor 返回列类型对应的编解码，时间类型暂不支持
func ValueFor(t ColumnType) (BinaryProtocolValue, error) {
	switch t {
	case TypeDouble:
		return Double{}, nil
	case TypeFloat:
		return Float{}, nil
	case TypeLongLong:
		return Int8{}, nil
	case TypeLong, TypeInt24:
		return Int4{}, nil
	case TypeShort, TypeYear:
		return Int2{}, nil
	case TypeTiny:
		return Int1{}, nil
	case TypeDecimal, TypeNewDecimal, TypeVarchar, TypeVarString, TypeString, TypeBlob, TypeJSON:
		return StringLenenc{}, nil
	default:
		return nil, xerrors.UnsupportedOperation("binary protocol value for column type " + t.String())
	}
}
