package customfield

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
)

// ModuleDir resolves custom-field mappers from user-authored WASM modules
// on disk. The mapper for an identifier "color-picker.color" is expected at
// <dir>/color-picker.color.wasm, exporting a function
//
//	map_type(ptr, len) -> u64
//
// that receives the attribute's options JSON as a string in linear memory
// and returns a TypeScript type expression, packed as (ptr << 32) | len.
// Memory is managed through the module's wasm_alloc/wasm_free exports.
//
// Resolution results, including misses, are cached per identifier so a
// module is compiled once per run and a missing module is reported once.
type ModuleDir struct {
	dir string
	log *zap.SugaredLogger

	mu      sync.Mutex
	runtime wazero.Runtime
	cache   map[string]Mapper // nil value = known-missing
}

// NewModuleDir returns a ModuleDir resolving modules under dir. The
// directory is not required to exist; an absent directory simply resolves
// nothing.
func NewModuleDir(dir string, log *zap.SugaredLogger) *ModuleDir {
	return &ModuleDir{
		dir:   dir,
		log:   log,
		cache: make(map[string]Mapper),
	}
}

// ModulePath returns the exact file path expected to provide the mapper
// for the given identifier.
func (d *ModuleDir) ModulePath(uid string) string {
	return filepath.Join(d.dir, uid+".wasm")
}

// Resolve implements Resolver. Load failures are reported to the operator
// with the resolved path and an extension template, then treated as a miss
// so the caller can degrade to the fallback type.
func (d *ModuleDir) Resolve(uid string) (Mapper, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if fn, seen := d.cache[uid]; seen {
		return fn, fn != nil
	}

	fn, err := d.load(uid)
	if err != nil {
		d.cache[uid] = nil
		d.log.Warnf("no extension for custom field %q: %v\n%s", uid, err, extensionTemplate(uid, d.ModulePath(uid)))
		return nil, false
	}
	d.cache[uid] = fn
	return fn, true
}

// Close releases the WASM runtime and all instantiated modules.
func (d *ModuleDir) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.runtime == nil {
		return nil
	}
	err := d.runtime.Close(context.Background())
	d.runtime = nil
	return err
}

// load reads, compiles, and instantiates the module for uid, returning a
// Mapper bound to its map_type export. Callers hold d.mu.
func (d *ModuleDir) load(uid string) (Mapper, error) {
	path := d.ModulePath(uid)
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading module")
	}

	ctx := context.Background()
	if d.runtime == nil {
		r := wazero.NewRuntime(ctx)
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			r.Close(ctx)
			return nil, errors.Wrap(err, "instantiating WASI")
		}
		d.runtime = r
	}

	compiled, err := d.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling %s", path)
	}

	mod, err := d.runtime.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName(uid))
	if err != nil {
		return nil, errors.Wrapf(err, "instantiating %s", path)
	}

	if mod.ExportedFunction("map_type") == nil {
		return nil, errors.Newf("%s does not export map_type", path)
	}

	// The module instance is shared across calls; exported functions are
	// expected to be pure, but access to linear memory must be serialized.
	var callMu sync.Mutex
	return func(options json.RawMessage) (string, error) {
		callMu.Lock()
		defer callMu.Unlock()
		return callStringFn(context.Background(), mod, "map_type", string(options))
	}, nil
}

// callStringFn handles the shared-memory protocol for string-in,
// string-out WASM function calls: the input is copied into memory obtained
// from wasm_alloc, the function returns (ptr << 32) | len locating the
// output string, and both buffers are released through wasm_free.
func callStringFn(ctx context.Context, mod api.Module, fnName, input string) (string, error) {
	allocFn := mod.ExportedFunction("wasm_alloc")
	freeFn := mod.ExportedFunction("wasm_free")
	targetFn := mod.ExportedFunction(fnName)

	if allocFn == nil || freeFn == nil || targetFn == nil {
		return "", errors.Newf("wasm: missing export %q, wasm_alloc, or wasm_free", fnName)
	}

	inputBytes := []byte(input)
	inputSize := uint64(len(inputBytes))

	var inputPtr uint64
	if inputSize > 0 {
		results, err := allocFn.Call(ctx, inputSize)
		if err != nil {
			return "", errors.Wrapf(err, "wasm alloc for %s (size=%d)", fnName, inputSize)
		}
		inputPtr = results[0]
		if inputPtr == 0 {
			return "", errors.Newf("wasm alloc returned null for %s (size=%d)", fnName, inputSize)
		}
		if !mod.Memory().Write(uint32(inputPtr), inputBytes) {
			if _, freeErr := freeFn.Call(ctx, inputPtr, inputSize); freeErr != nil {
				return "", errors.Wrapf(freeErr, "wasm %s memory write out of range at ptr=%d size=%d (also failed to free)", fnName, inputPtr, inputSize)
			}
			return "", errors.Newf("wasm %s memory write out of range at ptr=%d size=%d", fnName, inputPtr, inputSize)
		}
	}

	results, err := targetFn.Call(ctx, inputPtr, inputSize)
	if err != nil {
		if inputSize > 0 {
			freeFn.Call(ctx, inputPtr, inputSize) //nolint:errcheck
		}
		return "", errors.Wrapf(err, "wasm call %s", fnName)
	}

	if inputSize > 0 {
		if _, err := freeFn.Call(ctx, inputPtr, inputSize); err != nil {
			return "", errors.Wrapf(err, "wasm %s: failed to free input buffer at ptr=%d size=%d", fnName, inputPtr, inputSize)
		}
	}

	packed := results[0]
	resultPtr := uint32(packed >> 32)
	resultLen := uint32(packed & 0xFFFFFFFF)

	if resultPtr == 0 || resultLen == 0 {
		return "", errors.Newf("wasm %s returned null result (ptr=%d, len=%d)", fnName, resultPtr, resultLen)
	}

	resultBytes, ok := mod.Memory().Read(resultPtr, resultLen)
	if !ok {
		return "", errors.Newf("wasm %s memory read out of range at ptr=%d len=%d", fnName, resultPtr, resultLen)
	}

	// Copy before freeing; the slice aliases linear memory.
	output := make([]byte, len(resultBytes))
	copy(output, resultBytes)

	if _, err := freeFn.Call(ctx, uint64(resultPtr), uint64(resultLen)); err != nil {
		return "", errors.Wrapf(err, "wasm %s: failed to free result buffer at ptr=%d size=%d", fnName, resultPtr, resultLen)
	}

	return string(output), nil
}

// extensionTemplate returns a copy-pasteable skeleton for the missing
// extension so the operator can create it directly from the diagnostic.
func extensionTemplate(uid, path string) string {
	return `  expected module: ` + path + `
  a minimal extension (build with: tinygo build -o ` + uid + `.wasm -target wasi .):

    package main

    import "unsafe"

    func main() {}

    var buffers = map[uintptr][]byte{}

    //export wasm_alloc
    func wasmAlloc(size uint32) uint32 {
        buf := make([]byte, size)
        ptr := uintptr(unsafe.Pointer(&buf[0]))
        buffers[ptr] = buf
        return uint32(ptr)
    }

    //export wasm_free
    func wasmFree(ptr, size uint32) {
        delete(buffers, uintptr(ptr))
    }

    // mapType receives the attribute's options JSON at ptr/size and returns
    // the TypeScript type expression to emit, packed as (ptr << 32) | len.
    //
    //export map_type
    func mapType(ptr, size uint32) uint64 {
        out := []byte("string") // the type expression for this custom field
        outPtr := wasmAlloc(uint32(len(out)))
        copy(buffers[uintptr(outPtr)], out)
        return uint64(outPtr)<<32 | uint64(len(out))
    }
`
}
