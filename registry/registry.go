package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/protoshadow/schema"
)

// Registry holds message and enum contracts loaded from .proto files. Go
// bindings are checked against these contracts; nothing here is needed to
// encode or decode.
type Registry struct {
	ProtoDirectories []string // import roots, searched in order

	repo            *schema.ProtoRepo
	messages        map[string]*schema.Message // fully qualified name -> message
	enums           map[string]*schema.Enum    // fully qualified name -> enum
	parsedProtoBody map[string]*parser.Proto   // file path -> parsed file
	protoEntities   map[string]*protoFileEntity
	scopes          map[*schema.Message]string // message -> fully qualified name
}

// protoFileEntity records the resolved imports of one file
type protoFileEntity struct {
	imports []string
}

// NewRegistry creates a registry resolving imports against dirs. With no
// dirs the working directory is used.
func NewRegistry(dirs ...string) *Registry {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	return &Registry{
		ProtoDirectories: dirs,
		repo:             &schema.ProtoRepo{ProtoFiles: make(map[string]*schema.ProtoFile)},
		messages:         make(map[string]*schema.Message),
		enums:            make(map[string]*schema.Enum),
		parsedProtoBody:  make(map[string]*parser.Proto),
		protoEntities:    make(map[string]*protoFileEntity),
		scopes:           make(map[*schema.Message]string),
	}
}

// LoadSchema loads one .proto file, or every .proto file below a
// directory, together with the files they import.
func (r *Registry) LoadSchema(protoPath string) error {
	info, err := os.Stat(protoPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	if !info.IsDir() {
		if !strings.HasSuffix(protoPath, ".proto") {
			return fmt.Errorf("file %s is not a .proto file", protoPath)
		}
		if err := r.LoadFile(protoPath); err != nil {
			return fmt.Errorf("failed to load proto file: %w", err)
		}
		return nil
	}

	var files []string
	err = filepath.WalkDir(protoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".proto") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}

	for _, file := range files {
		if err := r.LoadFile(file); err != nil {
			return fmt.Errorf("failed to load proto file %s: %w", file, err)
		}
	}
	return nil
}

// LoadFile parses a .proto file and its imports and adds their messages
// and enums to the registry. protoFile is looked up directly first and
// then below each import root.
func (r *Registry) LoadFile(protoFile string) error {
	files, err := r.getAllProtoInfo(protoFile)
	if err != nil {
		return err
	}

	var loaded []*schema.ProtoFile
	for _, path := range files {
		if _, ok := r.repo.ProtoFiles[path]; ok {
			continue
		}
		pf, err := convertFile(path, r.parsedProtoBody[path])
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		r.repo.ProtoFiles[path] = pf
		loaded = append(loaded, pf)
	}

	return r.buildSymbolTable(loaded)
}

// buildSymbolTable registers every name first so references may point
// forward or across files, then resolves field types.
func (r *Registry) buildSymbolTable(files []*schema.ProtoFile) error {
	for _, pf := range files {
		r.registerNames(pf)
	}
	for _, pf := range files {
		if err := r.buildDefinitions(pf); err != nil {
			return err
		}
	}
	return nil
}

// registerNames registers all message and enum names of a file
func (r *Registry) registerNames(protoFile *schema.ProtoFile) {
	pkg := protoFile.Package
	for _, msg := range protoFile.Messages {
		fullName := r.getFullName(pkg, msg.Name)
		r.messages[fullName] = msg
		r.scopes[msg] = fullName
		r.registerNestedNames(fullName, msg)
	}
	for _, enum := range protoFile.Enums {
		r.enums[r.getFullName(pkg, enum.Name)] = enum
	}
}

// registerNestedNames registers nested message and enum names
func (r *Registry) registerNestedNames(parent string, msg *schema.Message) {
	for _, nestedMsg := range msg.NestedTypes {
		nestedFullName := parent + "." + nestedMsg.Name
		r.messages[nestedFullName] = nestedMsg
		r.scopes[nestedMsg] = nestedFullName
		r.registerNestedNames(nestedFullName, nestedMsg)
	}
	for _, nestedEnum := range msg.NestedEnums {
		r.enums[parent+"."+nestedEnum.Name] = nestedEnum
	}
}

// buildDefinitions resolves the type references of every field in a file
func (r *Registry) buildDefinitions(protoFile *schema.ProtoFile) error {
	entities := r.allEntities()
	var walk func(msg *schema.Message) error
	walk = func(msg *schema.Message) error {
		scope := r.scopes[msg]
		for _, f := range msg.Fields {
			if err := r.resolveField(f, scope, entities); err != nil {
				return fmt.Errorf("%s.%s: %w", scope, f.Name, err)
			}
		}
		for _, nested := range msg.NestedTypes {
			if err := walk(nested); err != nil {
				return err
			}
		}
		return nil
	}
	for _, msg := range protoFile.Messages {
		if err := walk(msg); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) resolveField(f *schema.FieldDescriptor, scope string, entities map[string]struct{}) error {
	switch f.Kind {
	case schema.KindRepeated:
		return r.resolveField(f.Elem, scope, entities)
	case schema.KindMap:
		return r.resolveField(f.Value, scope, entities)
	case kindUnresolved:
	default:
		return nil
	}

	if strings.HasPrefix(strings.TrimPrefix(f.TypeName, "."), wellKnownPrefix) {
		f.Kind = schema.KindMessage
		f.TypeName = strings.TrimPrefix(f.TypeName, ".")
		return nil
	}

	name, err := getReferencedType(f.TypeName, scope, entities)
	if err != nil {
		return err
	}
	f.TypeName = name
	if _, ok := r.enums[name]; ok {
		f.Kind = schema.KindSimpleEnum
	} else {
		f.Kind = schema.KindMessage
	}
	return nil
}

func (r *Registry) allEntities() map[string]struct{} {
	entities := make(map[string]struct{}, len(r.messages)+len(r.enums))
	for name := range r.messages {
		entities[name] = struct{}{}
	}
	for name := range r.enums {
		entities[name] = struct{}{}
	}
	return entities
}

func (r *Registry) getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// Files returns the loaded files keyed by path
func (r *Registry) Files() map[string]*schema.ProtoFile {
	return r.repo.ProtoFiles
}

// GetMessage retrieves a message definition by name
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	if msg, exists := r.messages[name]; exists {
		return msg, nil
	}

	// Try without package prefix
	for _, fullName := range r.ListMessages() {
		if strings.HasSuffix(fullName, "."+name) {
			return r.messages[fullName], nil
		}
	}

	return nil, fmt.Errorf("message not found: %s", name)
}

// GetEnum retrieves an enum definition by name
func (r *Registry) GetEnum(name string) (*schema.Enum, error) {
	if enum, exists := r.enums[name]; exists {
		return enum, nil
	}

	// Try without package prefix
	for _, fullName := range r.ListEnums() {
		if strings.HasSuffix(fullName, "."+name) {
			return r.enums[fullName], nil
		}
	}

	return nil, fmt.Errorf("enum not found: %s", name)
}

// ListMessages returns all registered message names, sorted
func (r *Registry) ListMessages() []string {
	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListEnums returns all registered enum names, sorted
func (r *Registry) ListEnums() []string {
	names := make([]string, 0, len(r.enums))
	for name := range r.enums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
