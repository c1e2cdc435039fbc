package ir

// Local describes a local-variable slot of a method body.
type Local struct {
	Type string
	Name string
}

// Handler is an exception-handler region over the linear instruction list.
// TryStart and HandlerStart are instruction indices; TryEnd and HandlerEnd
// are exclusive (the index of the first instruction after the region, which
// may equal the instruction count).
type Handler struct {
	TryStart     int32
	TryEnd       int32
	HandlerStart int32
	HandlerEnd   int32
	CatchType    string
}

// Body is a parsed method body: an ordered instruction list, local slots,
// and exception-handler regions.
type Body struct {
	Instrs   []Instr
	Locals   []Local
	Handlers []Handler
}
