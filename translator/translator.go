package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

// GetTranslator returns the process-wide translator, creating it on first use.
func GetTranslator() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to create shader translator: %w", initErr)
	}
	return translator, nil
}

// Program is a translated fragment program and the names its variables were
// mapped to.
type Program struct {
	Code     string
	Uniforms map[string]string
}

// TranslateFragment converts WebGL2 source to the dialect of the current
// context: GLSL 410 core on desktop, ESSL 3.00 on GLES.
func TranslateFragment(source string, isGLES bool) (*Program, error) {
	tr, err := GetTranslator()
	if err != nil {
		return nil, err
	}
	format := gst.OutputFormatGLSL410
	if isGLES {
		format = gst.OutputFormatESSL
	}
	out, err := tr.TranslateShader(source, "fragment", gst.ShaderSpecWebGL2, format)
	if err != nil {
		return nil, fmt.Errorf("fragment shader translation failed: %w", err)
	}
	p := &Program{Code: out.Code, Uniforms: make(map[string]string)}
	for name, v := range out.Variables {
		p.Uniforms[name] = v.MappedName
	}
	return p, nil
}
