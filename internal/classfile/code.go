package classfile

import "fmt"

// maxSwitchCases bounds tableswitch ranges so corrupt input cannot force
// huge allocations.
const maxSwitchCases = 1 << 16

// rawCode is an undecoded Code attribute.
type rawCode struct {
	maxStack  uint16
	maxLocals uint16
	code      []byte
	handlers  []rawHandler
	lines     []rawLine
	stackMap  []byte
}

type rawHandler struct {
	start, end, handler, catchType uint16
}

type rawLine struct {
	pc, line uint16
}

func parseCode(cp *constantPool, data []byte) (*rawCode, error) {
	r := newReader(data)
	rc := &rawCode{
		maxStack:  r.u2(),
		maxLocals: r.u2(),
	}
	codeLen := int(r.u4())
	if r.err == nil && (codeLen == 0 || codeLen > r.remaining()) {
		return nil, fmt.Errorf("invalid code length %d", codeLen)
	}
	rc.code = r.bytes(codeLen)

	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		rc.handlers = append(rc.handlers, rawHandler{r.u2(), r.u2(), r.u2(), r.u2()})
	}
	if r.err != nil {
		return nil, r.err
	}

	err := readAttributes(r, cp, func(name string, ar *reader) error {
		switch name {
		case "LineNumberTable":
			count := int(ar.u2())
			for i := 0; i < count && ar.err == nil; i++ {
				rc.lines = append(rc.lines, rawLine{pc: ar.u2(), line: ar.u2()})
			}
			return ar.err
		case "StackMapTable":
			rc.stackMap = ar.buf
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// codeDecoder turns a method's bytecode into instruction nodes. Labels are
// created on demand and shared by every node that refers to the same offset.
type codeDecoder struct {
	cp     *constantPool
	code   []byte
	labels map[int]*LabelNode
}

func (d *codeDecoder) label(offset int) *LabelNode {
	if l, ok := d.labels[offset]; ok {
		return l
	}
	l := &LabelNode{Offset: offset}
	d.labels[offset] = l
	return l
}

type located struct {
	offset int
	node   Instruction
}

// decodeInstructions expands rc into the node sequence: at each offset the
// label comes first, then line numbers, then the frame, then the instruction.
func decodeInstructions(cp *constantPool, rc *rawCode) ([]Instruction, []TryCatchBlock, error) {
	d := &codeDecoder{cp: cp, code: rc.code, labels: make(map[int]*LabelNode)}

	var insns []located
	boundaries := make(map[int]bool)
	for pc := 0; pc < len(d.code); {
		node, next, err := d.decodeAt(pc)
		if err != nil {
			return nil, nil, fmt.Errorf("offset %d: %w", pc, err)
		}
		boundaries[pc] = true
		insns = append(insns, located{pc, node})
		pc = next
	}
	boundaries[len(d.code)] = true

	var blocks []TryCatchBlock
	for _, h := range rc.handlers {
		tcb := TryCatchBlock{
			Start:   d.label(int(h.start)),
			End:     d.label(int(h.end)),
			Handler: d.label(int(h.handler)),
		}
		if h.catchType != 0 {
			name, err := cp.className(h.catchType)
			if err != nil {
				return nil, nil, fmt.Errorf("exception handler: %w", err)
			}
			tcb.Type = name
		}
		blocks = append(blocks, tcb)
	}

	lines := make(map[int][]Instruction)
	for _, ln := range rc.lines {
		start := d.label(int(ln.pc))
		lines[int(ln.pc)] = append(lines[int(ln.pc)], &LineNumberNode{Line: int(ln.line), Start: start})
	}

	frames, err := d.decodeStackMap(rc.stackMap)
	if err != nil {
		return nil, nil, fmt.Errorf("stack map: %w", err)
	}

	for offset := range d.labels {
		if !boundaries[offset] {
			return nil, nil, fmt.Errorf("label at offset %d is not an instruction boundary", offset)
		}
	}
	for offset := range frames {
		if !boundaries[offset] || offset >= len(d.code) {
			return nil, nil, fmt.Errorf("frame at offset %d is not an instruction boundary", offset)
		}
	}

	out := make([]Instruction, 0, len(insns)+len(d.labels)+len(rc.lines)+len(frames))
	emitMarkers := func(offset int) {
		if l, ok := d.labels[offset]; ok {
			out = append(out, l)
		}
		out = append(out, lines[offset]...)
		if f, ok := frames[offset]; ok {
			out = append(out, f)
		}
	}
	for _, in := range insns {
		emitMarkers(in.offset)
		out = append(out, in.node)
	}
	if l, ok := d.labels[len(d.code)]; ok {
		out = append(out, l)
	}
	return out, blocks, nil
}

func (d *codeDecoder) decodeAt(pc int) (Instruction, int, error) {
	op := Opcode(d.code[pc])
	r := &reader{buf: d.code, pos: pc + 1}

	var node Instruction
	switch op.Info().shape {
	case shapeNone:
		node = &InsnNode{Op: op}
	case shapeByte:
		node = &IntInsnNode{Op: op, Operand: int(int8(r.u1()))}
	case shapeShort:
		node = &IntInsnNode{Op: op, Operand: int(int16(r.u2()))}
	case shapeNewArray:
		node = &IntInsnNode{Op: op, Operand: int(r.u1())}
	case shapeLdc, shapeLdcWide:
		var idx uint16
		if op == LDC {
			idx = uint16(r.u1())
		} else {
			idx = r.u2()
		}
		if r.err != nil {
			break
		}
		v, err := d.cp.loadable(idx)
		if err != nil {
			return nil, 0, err
		}
		node = &LdcInsnNode{Value: v}
	case shapeVar:
		node = &VarInsnNode{Op: op, Var: int(r.u1())}
	case shapeVarImplied:
		if op < ISTORE0 {
			rel := int(op - ILOAD0)
			node = &VarInsnNode{Op: ILOAD + Opcode(rel/4), Var: rel % 4}
		} else {
			rel := int(op - ISTORE0)
			node = &VarInsnNode{Op: ISTORE + Opcode(rel/4), Var: rel % 4}
		}
	case shapeIinc:
		node = &IincInsnNode{Var: int(r.u1()), Incr: int(int8(r.u1()))}
	case shapeBranch:
		off := int(int16(r.u2()))
		node = &JumpInsnNode{Op: op, Target: d.target(pc, off)}
	case shapeBranchWide:
		off := int(int32(r.u4()))
		norm := GOTO
		if op == JSRW {
			norm = JSR
		}
		node = &JumpInsnNode{Op: norm, Target: d.target(pc, off)}
	case shapeTableSwitch:
		r.pos = (pc + 4) &^ 3
		def := int(int32(r.u4()))
		low := int(int32(r.u4()))
		high := int(int32(r.u4()))
		if r.err != nil {
			break
		}
		if high < low || high-low >= maxSwitchCases || (high-low+1)*4 > r.remaining() {
			return nil, 0, fmt.Errorf("tableswitch: invalid range [%d, %d]", low, high)
		}
		n := &TableSwitchInsnNode{Min: low, Max: high, Default: d.target(pc, def)}
		for i := low; i <= high; i++ {
			n.Labels = append(n.Labels, d.target(pc, int(int32(r.u4()))))
		}
		node = n
	case shapeLookupSwitch:
		r.pos = (pc + 4) &^ 3
		def := int(int32(r.u4()))
		npairs := int(int32(r.u4()))
		if r.err != nil {
			break
		}
		if npairs < 0 || npairs*8 > r.remaining() {
			return nil, 0, fmt.Errorf("lookupswitch: invalid pair count %d", npairs)
		}
		n := &LookupSwitchInsnNode{Default: d.target(pc, def)}
		for i := 0; i < npairs; i++ {
			n.Keys = append(n.Keys, int(int32(r.u4())))
			n.Labels = append(n.Labels, d.target(pc, int(int32(r.u4()))))
		}
		node = n
	case shapeField:
		idx := r.u2()
		if r.err != nil {
			break
		}
		owner, name, desc, _, err := d.cp.memberRef(idx, tagFieldref)
		if err != nil {
			return nil, 0, err
		}
		node = &FieldInsnNode{Op: op, Owner: owner, Name: name, Desc: desc}
	case shapeMethod, shapeInterface:
		idx := r.u2()
		if op == INVOKEINTERFACE {
			r.u1()
			r.u1()
		}
		if r.err != nil {
			break
		}
		owner, name, desc, itf, err := d.cp.memberRef(idx, tagMethodref, tagInterfaceMethodref)
		if err != nil {
			return nil, 0, err
		}
		node = &MethodInsnNode{Op: op, Owner: owner, Name: name, Desc: desc, Interface: itf}
	case shapeIndy:
		idx := r.u2()
		r.u2()
		if r.err != nil {
			break
		}
		e, err := d.cp.entry(idx, tagInvokeDynamic)
		if err != nil {
			return nil, 0, err
		}
		name, desc, err := d.cp.nameAndType(e.b)
		if err != nil {
			return nil, 0, err
		}
		h, args, err := d.cp.bootstrap(e.a)
		if err != nil {
			return nil, 0, err
		}
		node = &InvokeDynamicInsnNode{Name: name, Desc: desc, Bootstrap: h, Args: args}
	case shapeType:
		idx := r.u2()
		if r.err != nil {
			break
		}
		name, err := d.cp.className(idx)
		if err != nil {
			return nil, 0, err
		}
		node = &TypeInsnNode{Op: op, Desc: name}
	case shapeMultiANewArray:
		idx := r.u2()
		dims := int(r.u1())
		if r.err != nil {
			break
		}
		name, err := d.cp.className(idx)
		if err != nil {
			return nil, 0, err
		}
		node = &MultiANewArrayInsnNode{Desc: name, Dims: dims}
	case shapeWide:
		inner := Opcode(r.u1())
		switch {
		case inner == IINC:
			node = &IincInsnNode{Var: int(r.u2()), Incr: int(int16(r.u2()))}
		case inner >= ILOAD && inner <= ALOAD, inner >= ISTORE && inner <= ASTORE, inner == RET:
			node = &VarInsnNode{Op: inner, Var: int(r.u2())}
		default:
			if r.err == nil {
				return nil, 0, fmt.Errorf("wide: invalid opcode %s", inner)
			}
		}
	default:
		return nil, 0, fmt.Errorf("invalid opcode 0x%02x", byte(op))
	}
	if r.err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, r.err)
	}
	return node, r.pos, nil
}

func (d *codeDecoder) target(pc, off int) *LabelNode {
	return d.label(pc + off)
}

// decodeStackMap decodes a StackMapTable attribute into frames keyed by
// their bytecode offset.
func (d *codeDecoder) decodeStackMap(data []byte) (map[int]*FrameNode, error) {
	frames := make(map[int]*FrameNode)
	if data == nil {
		return frames, nil
	}
	r := newReader(data)
	count := int(r.u2())
	offset := -1
	for i := 0; i < count; i++ {
		ft := int(r.u1())
		f := &FrameNode{}
		var delta int
		switch {
		case ft < 64:
			f.Kind, delta = FrameSame, ft
		case ft < 128:
			f.Kind, delta = FrameSame1, ft-64
			f.Stack = []any{d.verificationType(r)}
		case ft < 247:
			return nil, fmt.Errorf("reserved frame type %d", ft)
		case ft == 247:
			f.Kind, delta = FrameSame1, int(r.u2())
			f.Stack = []any{d.verificationType(r)}
		case ft < 251:
			f.Kind, delta = FrameChop, int(r.u2())
			f.Chop = 251 - ft
		case ft == 251:
			f.Kind, delta = FrameSame, int(r.u2())
		case ft < 255:
			f.Kind, delta = FrameAppend, int(r.u2())
			for k := 0; k < ft-251; k++ {
				f.Locals = append(f.Locals, d.verificationType(r))
			}
		default:
			f.Kind, delta = FrameFull, int(r.u2())
			f.Locals = d.verificationTypes(r)
			f.Stack = d.verificationTypes(r)
		}
		if r.err != nil {
			return nil, r.err
		}
		offset += delta + 1
		frames[offset] = f
	}
	return frames, r.err
}

func (d *codeDecoder) verificationTypes(r *reader) []any {
	n := int(r.u2())
	var out []any
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, d.verificationType(r))
	}
	return out
}

func (d *codeDecoder) verificationType(r *reader) any {
	tag := r.u1()
	switch tag {
	case 7:
		name, err := d.cp.className(r.u2())
		if err != nil && r.err == nil {
			r.err = err
		}
		return name
	case 8:
		return d.label(int(r.u2()))
	default:
		if tag > uint8(VUninitializedThis) && r.err == nil {
			r.err = fmt.Errorf("invalid verification type %d", tag)
		}
		return VerificationType(tag)
	}
}
