package main

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Image is a dictionary snapshot: a VM may boot from one instead of
// building its primitives and kernel, so that builds can be layered.
type Image struct {
	Root uint16 // LATEST
	Here uint16 // H
	Dict []entry
	Code []atom
	Data []uint16 // cells [0, Here)
}

var imageMagic = [4]byte{'T', 'F', 'I', '1'}

var (
	errImageBadMagic   = errors.New("not a tinyforth image")
	errImageNameWidth  = errors.New("image name width mismatch")
	errImageBadKind    = errors.New("invalid entry kind")
	errImageBadPrim    = errors.New("unknown primitive")
	errImageBadAtom    = errors.New("invalid atom kind")
	errImageBadHandle  = errors.New("invalid handle")
	errImageBadPointer = errors.New("invalid free pointer")
)

// Snapshot captures the VM's dictionary, code, and data.
func (vm *VM) Snapshot() (*Image, error) {
	if err := vm.boot(); err != nil {
		return nil, err
	}
	here, err := vm.mem.Load(addrHere)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load H")
	}
	root, err := vm.mem.Load(addrLatest)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load LATEST")
	}
	data, err := vm.mem.Slice(uint(here))
	if err != nil {
		return nil, errors.Wrap(err, "unable to copy data")
	}
	return &Image{
		Root: root,
		Here: here,
		Dict: append([]entry(nil), vm.dict...),
		Code: append([]atom(nil), vm.code...),
		Data: data,
	}, nil
}

func (vm *VM) adoptImage(img *Image) error {
	if err := img.validate(); err != nil {
		return err
	}
	vm.dict = append(vm.dict[:0], img.Dict...)
	vm.code = append(vm.code[:0], img.Code...)
	if err := vm.mem.Stor(0, img.Data...); err != nil {
		return errors.Wrap(err, "unable to load image data")
	}
	for _, stor := range []struct {
		addr uint
		val  uint16
	}{
		{addrHere, img.Here},
		{addrLatest, img.Root},
		{addrState, 0},
		{addrCP, uint16(len(img.Code))},
	} {
		if err := vm.mem.Stor(stor.addr, stor.val); err != nil {
			return errors.Wrap(err, "unable to initialize image pointers")
		}
	}
	vm.indexPrimitives()
	return nil
}

func (img *Image) validate() error {
	n := len(img.Dict)
	if n > maxEntries {
		return errors.Errorf("too many entries %v", n)
	}
	if int(img.Root) > n {
		return errors.Wrapf(errImageBadHandle, "root %v", img.Root)
	}
	if int(img.Here) != len(img.Data) || img.Here < addrDict {
		return errors.Wrapf(errImageBadPointer, "H=%v with %v data cells", img.Here, len(img.Data))
	}
	for i, e := range img.Dict {
		if int(e.link) > i {
			return errors.Wrapf(errImageBadHandle, "entry %v links forward to %v", i+1, e.link)
		}
		switch e.kind {
		case kindNative:
			if int(e.prim) >= len(primitives) {
				return errors.Wrapf(errImageBadPrim, "entry %v primitive %v", i+1, e.prim)
			}
		case kindCompiled, kindDoesProto:
			if int(e.code) >= len(img.Code) {
				return errors.Wrapf(errImageBadHandle, "entry %v code @%v", i+1, e.code)
			}
		case kindCell, kindSysVar:
		default:
			return errors.Wrapf(errImageBadKind, "entry %v kind %v", i+1, e.kind)
		}
	}
	for pos, a := range img.Code {
		if a.kind >= atomKindMax {
			return errors.Wrapf(errImageBadAtom, "@%v kind %v", pos, a.kind)
		}
		if a.kind == atomCall && (a.arg == 0 || int(a.arg) > n) {
			return errors.Wrapf(errImageBadHandle, "@%v call %v", pos, a.arg)
		}
	}
	return nil
}

// WriteTo encodes the image, big endian:
//
//	magic "TFI1", u16 name width, u16 root, u16 H, u16 entry count
//	entries: name[16], u16 link, u8 flags, u8 kind, body by kind
//	u16 atom count, atoms: u8 kind, u16 arg, strings add u16 length and text
//	data cells [0, H) as u16
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	iw := imageWriter{w: bufio.NewWriter(w)}
	iw.bytes(imageMagic[:])
	iw.u16(nameWidth)
	iw.u16(img.Root)
	iw.u16(img.Here)
	iw.u16(uint16(len(img.Dict)))
	for _, e := range img.Dict {
		iw.bytes(e.name[:])
		iw.u16(e.link)
		iw.u8(e.flags)
		iw.u8(uint8(e.kind))
		switch e.kind {
		case kindNative:
			iw.u16(e.prim)
		case kindCompiled:
			iw.u16(e.code)
		case kindCell, kindSysVar:
			iw.u16(e.addr)
		case kindDoesProto:
			iw.u16(e.addr)
			iw.u16(e.code)
		}
	}
	iw.u16(uint16(len(img.Code)))
	for _, a := range img.Code {
		iw.u8(uint8(a.kind))
		iw.u16(a.arg)
		if a.kind == atomString {
			iw.u16(uint16(len(a.text)))
			iw.bytes([]byte(a.text))
		}
	}
	for _, val := range img.Data {
		iw.u16(val)
	}
	if iw.err == nil {
		iw.err = iw.w.Flush()
	}
	return iw.n, errors.Wrap(iw.err, "unable to write image")
}

// ReadImage decodes an image written by Image.WriteTo.
func ReadImage(r io.Reader) (*Image, error) {
	ir := imageReader{r: bufio.NewReader(r)}
	var magic [4]byte
	ir.bytes(magic[:])
	if ir.err == nil && magic != imageMagic {
		return nil, errImageBadMagic
	}
	if width := ir.u16(); ir.err == nil && width != nameWidth {
		return nil, errors.Wrapf(errImageNameWidth, "have %v, want %v", width, nameWidth)
	}

	var img Image
	img.Root = ir.u16()
	img.Here = ir.u16()
	img.Dict = make([]entry, ir.u16())
	for i := range img.Dict {
		e := &img.Dict[i]
		ir.bytes(e.name[:])
		e.link = ir.u16()
		e.flags = ir.u8()
		e.kind = wordKind(ir.u8())
		switch e.kind {
		case kindNative:
			e.prim = ir.u16()
		case kindCompiled:
			e.code = ir.u16()
		case kindCell, kindSysVar:
			e.addr = ir.u16()
		case kindDoesProto:
			e.addr = ir.u16()
			e.code = ir.u16()
		default:
			if ir.err == nil {
				return nil, errors.Wrapf(errImageBadKind, "entry %v kind %v", i+1, e.kind)
			}
		}
	}
	img.Code = make([]atom, ir.u16())
	for i := range img.Code {
		a := &img.Code[i]
		a.kind = atomKind(ir.u8())
		a.arg = ir.u16()
		if a.kind == atomString {
			text := make([]byte, ir.u16())
			ir.bytes(text)
			a.text = string(text)
		}
	}
	img.Data = make([]uint16, img.Here)
	for i := range img.Data {
		img.Data[i] = ir.u16()
	}
	if ir.err != nil {
		return nil, errors.Wrap(ir.err, "unable to read image")
	}
	if err := img.validate(); err != nil {
		return nil, err
	}
	return &img, nil
}

// LoadImage reads an image file.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open image")
	}
	defer f.Close()
	img, err := ReadImage(f)
	return img, errors.Wrapf(err, "%v", path)
}

// Save writes the image to a file.
func (img *Image) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "unable to create image")
	}
	if _, err := img.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "%v", path)
	}
	return errors.Wrapf(f.Close(), "%v", path)
}

type imageWriter struct {
	w   *bufio.Writer
	n   int64
	err error
	buf [2]byte
}

func (iw *imageWriter) bytes(p []byte) {
	if iw.err == nil {
		var n int
		n, iw.err = iw.w.Write(p)
		iw.n += int64(n)
	}
}

func (iw *imageWriter) u8(val uint8) {
	iw.buf[0] = val
	iw.bytes(iw.buf[:1])
}

func (iw *imageWriter) u16(val uint16) {
	binary.BigEndian.PutUint16(iw.buf[:], val)
	iw.bytes(iw.buf[:])
}

type imageReader struct {
	r   *bufio.Reader
	err error
	buf [2]byte
}

func (ir *imageReader) bytes(p []byte) {
	if ir.err == nil {
		_, ir.err = io.ReadFull(ir.r, p)
	}
}

func (ir *imageReader) u8() uint8 {
	ir.bytes(ir.buf[:1])
	if ir.err != nil {
		return 0
	}
	return ir.buf[0]
}

func (ir *imageReader) u16() uint16 {
	ir.bytes(ir.buf[:])
	if ir.err != nil {
		return 0
	}
	return binary.BigEndian.Uint16(ir.buf[:])
}
