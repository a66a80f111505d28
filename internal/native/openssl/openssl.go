//go:build cgo && openssl

// Package openssl implements the native boundary over libcrypto with cgo.
//
// The C shims below hide the differences between the 1.0.2, 1.1.1 and 3.x
// error APIs; Info reports which of them the linked library really has so
// callers pick the matching strategy.
package openssl

/*
#cgo pkg-config: libcrypto
#include <stdlib.h>
#include <string.h>
#include <limits.h>
#include <openssl/opensslv.h>
#include <openssl/crypto.h>
#include <openssl/err.h>
#include <openssl/rand.h>

#if OPENSSL_VERSION_NUMBER >= 0x30000000L
# define GO_OSSL_300 1
#else
# define GO_OSSL_300 0
#endif

#if OPENSSL_VERSION_NUMBER >= 0x10101000L
# define GO_OSSL_111 1
#else
# define GO_OSSL_111 0
#endif

static void go_ossl_init(void) {
#if OPENSSL_VERSION_NUMBER >= 0x10100000L
	OPENSSL_init_crypto(OPENSSL_INIT_LOAD_CRYPTO_STRINGS, NULL);
#else
	ERR_load_crypto_strings();
#endif
}

static const char *go_ossl_version_text(void) { return OPENSSL_VERSION_TEXT; }
static int go_ossl_is_300(void) { return GO_OSSL_300; }
static int go_ossl_is_111(void) { return GO_OSSL_111; }

static unsigned long go_ossl_get_error_all(const char **file, int *line, const char **func,
                                           const char **data, int *flags) {
#if GO_OSSL_300
	return ERR_get_error_all(file, line, func, data, flags);
#else
	unsigned long code = ERR_get_error_line_data(file, line, data, flags);
	*func = ERR_func_error_string(code);
	return code;
#endif
}

static unsigned long go_ossl_get_error_line_data(const char **file, int *line,
                                                 const char **data, int *flags) {
#if GO_OSSL_300
	const char *func = NULL;
	return ERR_get_error_all(file, line, &func, data, flags);
#else
	return ERR_get_error_line_data(file, line, data, flags);
#endif
}

static const char *go_ossl_func_error_string(unsigned long code) {
#if GO_OSSL_300
	(void)code;
	return NULL;
#else
	return ERR_func_error_string(code);
#endif
}

static void go_ossl_put_error(int lib, int func, int reason, const char *file, int line) {
#if GO_OSSL_300
	(void)func;
	ERR_new();
	ERR_set_debug(file, line, NULL);
	ERR_set_error(lib, reason, NULL);
#else
	ERR_put_error(lib, func, reason, file, line);
#endif
}

static void go_ossl_new_error(void) {
#if GO_OSSL_300
	ERR_new();
#endif
}

static void go_ossl_set_debug(const char *file, int line, const char *func) {
#if GO_OSSL_300
	ERR_set_debug(file, line, func);
#else
	(void)file; (void)line; (void)func;
#endif
}

static void go_ossl_set_error(int lib, int reason) {
#if GO_OSSL_300
	ERR_set_error(lib, reason, NULL);
#else
	ERR_put_error(lib, 0, reason, NULL, 0);
#endif
}

static int go_ossl_get_lib(unsigned long code) { return ERR_GET_LIB(code); }
static int go_ossl_get_reason(unsigned long code) { return ERR_GET_REASON(code); }

static int go_ossl_get_func(unsigned long code) {
#if GO_OSSL_300
	(void)code;
	return 0;
#else
	return ERR_GET_FUNC(code);
#endif
}

static unsigned long go_ossl_pack(int lib, int func, int reason) {
	return ERR_PACK(lib, func, reason);
}

static void *go_ossl_malloc(size_t n, const char *file, int line) {
	return CRYPTO_malloc(n, file, line);
}

static void go_ossl_keep_random_devices_open(int keep) {
#if GO_OSSL_111
	RAND_keep_random_devices_open(keep);
#else
	(void)keep;
#endif
}
*/
import "C"

import (
	"math"
	"sync"
	"unsafe"

	"github.com/mrz1836/ossl/internal/native"
)

// Backend is the libcrypto linked into the process.
type Backend struct {
	initOnce sync.Once
}

// New returns the linked library. Every Backend shares the library's
// process-wide state.
func New() *Backend {
	return &Backend{}
}

// Init loads the error strings once.
func (b *Backend) Init() {
	b.initOnce.Do(func() {
		C.go_ossl_init()
	})
}

// Info reports the linked library's version and capabilities.
func (b *Backend) Info() native.Info {
	is300 := C.go_ossl_is_300() != 0
	return native.Info{
		Name:    "OpenSSL",
		Version: C.GoString(C.go_ossl_version_text()),
		Caps: native.Caps{
			GetErrorAll:       is300,
			NewErrorAPI:       is300,
			MallocedData:      true,
			KeepRandomDevices: C.go_ossl_is_111() != 0,
			RandConvention:    native.RandPositiveOK,
			MaxRandLen:        math.MaxInt32,
		},
	}
}

// ref wraps a C string without copying it.
func ref(p *C.char) native.Ref {
	if p == nil {
		return native.Ref{}
	}
	n := int(C.strlen(p))
	return native.NewRef(unsafe.Pointer(p), unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

//nolint:gochecknoglobals // C copies of Go strings handed to the library for process lifetime
var interned sync.Map

// cstr returns a C string for r. References that did not come from the
// library are interned and never freed, because the library keeps the
// pointer for as long as the queue entry lives.
func cstr(r native.Ref) *C.char {
	if r.IsNil() {
		return nil
	}
	if p := r.Pointer(); p != nil {
		return (*C.char)(p)
	}
	return intern(string(r.Bytes()))
}

func intern(s string) *C.char {
	if p, ok := interned.Load(s); ok {
		return p.(*C.char) //nolint:forcetypeassert // only *C.char is stored
	}
	c := C.CString(s)
	p, loaded := interned.LoadOrStore(s, c)
	if loaded {
		C.free(unsafe.Pointer(c))
	}
	return p.(*C.char) //nolint:forcetypeassert // only *C.char is stored
}

func entry(code C.ulong, file *C.char, line C.int, fn *C.char, data *C.char, flags C.int) native.Entry {
	return native.Entry{
		Code:  native.Code(code),
		File:  ref(file),
		Line:  int(line),
		Func:  ref(fn),
		Data:  ref(data),
		Flags: native.Flags(flags),
	}
}

// GetErrorAll pops the oldest entry with its function name.
func (b *Backend) GetErrorAll() native.Entry {
	var (
		file, fn, data *C.char
		line, flags    C.int
	)
	code := C.go_ossl_get_error_all(&file, &line, &fn, &data, &flags)
	return entry(code, file, line, fn, data, flags)
}

// GetErrorLineData pops the oldest entry without its function name.
func (b *Backend) GetErrorLineData() native.Entry {
	var (
		file, data  *C.char
		line, flags C.int
	)
	code := C.go_ossl_get_error_line_data(&file, &line, &data, &flags)
	return entry(code, file, line, nil, data, flags)
}

// FuncErrorString resolves the function name packed into a code.
func (b *Backend) FuncErrorString(code native.Code) native.Ref {
	return ref(C.go_ossl_func_error_string(C.ulong(code)))
}

// LibErrorString resolves the library name of a code.
func (b *Backend) LibErrorString(code native.Code) (string, bool) {
	r := ref(C.ERR_lib_error_string(C.ulong(code)))
	return r.View(), !r.IsNil()
}

// ReasonErrorString resolves the reason text of a code.
func (b *Backend) ReasonErrorString(code native.Code) (string, bool) {
	r := ref(C.ERR_reason_error_string(C.ulong(code)))
	return r.View(), !r.IsNil()
}

// Lib extracts the library id of a code.
func (b *Backend) Lib(code native.Code) int {
	return int(C.go_ossl_get_lib(C.ulong(code)))
}

// Func extracts the function id of a code; zero on 3.x.
func (b *Backend) Func(code native.Code) int {
	return int(C.go_ossl_get_func(C.ulong(code)))
}

// Reason extracts the reason id of a code.
func (b *Backend) Reason(code native.Code) int {
	return int(C.go_ossl_get_reason(C.ulong(code)))
}

// Pack builds a code from its parts.
func (b *Backend) Pack(lib, fn, reason int) native.Code {
	return native.Code(C.go_ossl_pack(C.int(lib), C.int(fn), C.int(reason)))
}

// PutError pushes an entry with ERR_put_error semantics.
func (b *Backend) PutError(lib, fn, reason int, file native.Ref, line int) {
	C.go_ossl_put_error(C.int(lib), C.int(fn), C.int(reason), cstr(file), C.int(line))
}

// NewError starts a new entry (3.x).
func (b *Backend) NewError() {
	C.go_ossl_new_error()
}

// SetDebug records the source location of the newest entry (3.x).
func (b *Backend) SetDebug(file native.Ref, line int, fn native.Ref) {
	C.go_ossl_set_debug(cstr(file), C.int(line), cstr(fn))
}

// SetError sets the code of the newest entry.
func (b *Backend) SetError(lib, reason int) {
	C.go_ossl_set_error(C.int(lib), C.int(reason))
}

// Malloc allocates n bytes with the library's allocator.
func (b *Backend) Malloc(n int, file string, line int) (native.Ref, bool) {
	if n <= 0 {
		return native.Ref{}, false
	}
	p := C.go_ossl_malloc(C.size_t(n), intern(file), C.int(line))
	if p == nil {
		return native.Ref{}, false
	}
	return native.NewRef(p, unsafe.Slice((*byte)(p), n)), true
}

// SetErrorData attaches data to the newest entry. The library takes
// ownership of memory flagged TxtMalloced.
func (b *Backend) SetErrorData(data native.Ref, flags native.Flags) {
	C.ERR_set_error_data(cstr(data), C.int(flags))
}

// KeepRandomDevicesOpen maps to RAND_keep_random_devices_open (1.1.1+).
func (b *Backend) KeepRandomDevicesOpen(keep bool) {
	k := 0
	if keep {
		k = 1
	}
	C.go_ossl_keep_random_devices_open(C.int(k))
}

// RandBytes calls RAND_bytes. len(buf) must fit in a C int.
func (b *Backend) RandBytes(buf []byte) int {
	if len(buf) == 0 {
		return int(C.RAND_bytes(nil, 0))
	}
	return int(C.RAND_bytes((*C.uchar)(unsafe.Pointer(&buf[0])), C.int(len(buf))))
}
