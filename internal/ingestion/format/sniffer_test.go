package format

import (
	"io"
	"strings"
	"testing"
)

const schemaASample = `<?xml version="1.0" encoding="UTF-8"?>
<energiaExcedentaria>
  <registro>
    <cupsCliente>ES0021000000001234AB</cupsCliente>
    <instalacionGen>INST-001</instalacionGen>
    <fechaDesde>2024-01-01</fechaDesde>
    <fechaHasta>2024-01-31</fechaHasta>
    <tipoAutoconsumo>41</tipoAutoconsumo>
    <energiaNetaGen>
      <hora>100.5</hora><hora>90.1</hora><hora>80.2</hora>
      <hora>70.3</hora><hora>60.4</hora><hora>50.5</hora>
    </energiaNetaGen>
    <energiaAutoconsumida>
      <p1>10.1</p1><p2>10.2</p2><p3>10.3</p3>
      <p4>10.4</p4><p5>10.5</p5><p6>10.6</p6>
    </energiaAutoconsumida>
    <pagoTDA>
      <p1>1.1</p1><p2>1.2</p2><p3>1.3</p3>
      <p4>1.4</p4><p5>1.5</p5><p6>1.6</p6>
    </pagoTDA>
  </registro>
</energiaExcedentaria>`

const schemaBSample = `<?xml version="1.0"?>
<AutoconsumoColectivo>
  <Cabecera>
    <CUPS>ES0021000000005678CD</CUPS>
    <TipoAutoconsumo>43</TipoAutoconsumo>
    <PeriodoFacturacion>
      <FechaDesde>2024-02-01</FechaDesde>
      <FechaHasta>2024-02-29</FechaHasta>
    </PeriodoFacturacion>
  </Cabecera>
  <Registros>
    <Registro><EnergiaNetaGenerada>1.1</EnergiaNetaGenerada><EnergiaAutoconsumida>2.1</EnergiaAutoconsumida><PagoTDA>3.1</PagoTDA></Registro>
    <Registro><EnergiaNetaGenerada>1.2</EnergiaNetaGenerada><EnergiaAutoconsumida>2.2</EnergiaAutoconsumida><PagoTDA>3.2</PagoTDA></Registro>
    <Registro><EnergiaNetaGenerada>1.3</EnergiaNetaGenerada><EnergiaAutoconsumida>2.3</EnergiaAutoconsumida><PagoTDA>3.3</PagoTDA></Registro>
    <Registro><EnergiaNetaGenerada>1.4</EnergiaNetaGenerada><EnergiaAutoconsumida>2.4</EnergiaAutoconsumida><PagoTDA>3.4</PagoTDA></Registro>
    <Registro><EnergiaNetaGenerada>1.5</EnergiaNetaGenerada><EnergiaAutoconsumida>2.5</EnergiaAutoconsumida><PagoTDA>3.5</PagoTDA></Registro>
    <Registro><EnergiaNetaGenerada>1.6</EnergiaNetaGenerada><EnergiaAutoconsumida>2.6</EnergiaAutoconsumida><PagoTDA>3.6</PagoTDA></Registro>
  </Registros>
</AutoconsumoColectivo>`

func drain(t *testing.T, extractor Extractor) []Entry {
	t.Helper()
	var entries []Entry
	for {
		entry, err := extractor.Next()
		if err == io.EOF {
			return entries
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		entries = append(entries, entry)
	}
}

func TestSniff_SchemaA(t *testing.T) {
	input, err := Sniff("export.xml", []byte(schemaASample))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if input.Kind != SchemaA {
		t.Fatalf("expected SchemaA, got %v", input.Kind)
	}
}

func TestSniff_XMLWithoutExtension(t *testing.T) {
	input, err := Sniff("export.dat", []byte(schemaBSample))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if input.Kind != SchemaB {
		t.Fatalf("expected SchemaB, got %v", input.Kind)
	}
}

func TestSniff_UnknownRoot(t *testing.T) {
	_, err := Sniff("export.xml", []byte(`<otraCosa><x>1</x></otraCosa>`))
	structural, ok := err.(*StructuralError)
	if !ok {
		t.Fatalf("expected structural error, got %v", err)
	}
	if structural.Line != 1 {
		t.Fatalf("expected line 1, got %d", structural.Line)
	}
}

func TestSniff_BrokenXML(t *testing.T) {
	_, err := Sniff("export.xml", []byte(`<energiaExcedentaria><registro>`))
	if _, ok := err.(*StructuralError); !ok {
		t.Fatalf("expected structural error, got %v", err)
	}
}

func TestSchemaA_ExtractsRow(t *testing.T) {
	input, err := Sniff("export.xml", []byte(schemaASample))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	extractor, err := NewExtractor(input, []byte(schemaASample))
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	entries := drain(t, extractor)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if len(entry.Structural) != 0 {
		t.Fatalf("unexpected structural findings: %v", entry.Structural)
	}
	if entry.Line != 2 {
		t.Fatalf("expected line 2, got %d", entry.Line)
	}
	if entry.Row.CUPS != "ES0021000000001234AB" {
		t.Fatalf("cups: got %q", entry.Row.CUPS)
	}
	if entry.Row.NetGenerated[0] != "100.5" || entry.Row.NetGenerated[5] != "50.5" {
		t.Fatalf("hora values misordered: %v", entry.Row.NetGenerated)
	}
	if entry.Row.SelfConsumed[2] != "10.3" {
		t.Fatalf("positional values misordered: %v", entry.Row.SelfConsumed)
	}
}

func TestSchemaA_TrailingGarbageTolerated(t *testing.T) {
	content := schemaASample + "\ngarbage after the document"
	input, err := Sniff("export.xml", []byte(content))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if input.Kind != SchemaA {
		t.Fatalf("expected SchemaA, got %v", input.Kind)
	}
}

func TestSchemaA_NamespacesStripped(t *testing.T) {
	content := strings.ReplaceAll(schemaASample, "<energiaExcedentaria>", `<ns:energiaExcedentaria xmlns:ns="urn:energia">`)
	content = strings.ReplaceAll(content, "</energiaExcedentaria>", "</ns:energiaExcedentaria>")
	input, err := Sniff("export.xml", []byte(content))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if input.Kind != SchemaA {
		t.Fatalf("expected SchemaA, got %v", input.Kind)
	}
}

func TestSchemaA_NoRegistros(t *testing.T) {
	content := `<energiaExcedentaria><otra>1</otra></energiaExcedentaria>`
	input, err := Sniff("export.xml", []byte(content))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	_, err = NewExtractor(input, []byte(content))
	structural, ok := err.(*StructuralError)
	if !ok {
		t.Fatalf("expected structural error, got %v", err)
	}
	if structural.Line != 1 {
		t.Fatalf("expected line 1, got %d", structural.Line)
	}
}

func TestSchemaA_MissingFieldIsRowLevel(t *testing.T) {
	content := strings.Replace(schemaASample, "<fechaDesde>2024-01-01</fechaDesde>", "", 1)
	input, err := Sniff("export.xml", []byte(content))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	extractor, err := NewExtractor(input, []byte(content))
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	entries := drain(t, extractor)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if len(entries[0].Structural) == 0 {
		t.Fatalf("expected structural findings")
	}
}

func TestSchemaB_FoldsSingleRow(t *testing.T) {
	input, err := Sniff("colectivo.xml", []byte(schemaBSample))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	extractor, err := NewExtractor(input, []byte(schemaBSample))
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	entries := drain(t, extractor)
	if len(entries) != 1 {
		t.Fatalf("expected one folded row, got %d", len(entries))
	}
	row := entries[0].Row
	if row.CUPS != "ES0021000000005678CD" || row.Type != "43" {
		t.Fatalf("header fields not folded: %+v", row)
	}
	if row.NetGenerated[0] != "1.1" || row.NetGenerated[5] != "1.6" {
		t.Fatalf("net vector misassembled: %v", row.NetGenerated)
	}
	if row.TollPayment[3] != "3.4" {
		t.Fatalf("toll vector misassembled: %v", row.TollPayment)
	}
}

func TestSchemaB_TooFewRegistros(t *testing.T) {
	content := strings.Replace(schemaBSample,
		`<Registro><EnergiaNetaGenerada>1.6</EnergiaNetaGenerada><EnergiaAutoconsumida>2.6</EnergiaAutoconsumida><PagoTDA>3.6</PagoTDA></Registro>`,
		"", 1)
	input, err := Sniff("colectivo.xml", []byte(content))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	extractor, err := NewExtractor(input, []byte(content))
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	entries := drain(t, extractor)
	if len(entries) != 1 || len(entries[0].Structural) == 0 {
		t.Fatalf("expected one structural entry, got %v", entries)
	}
	if entries[0].Line != 2 {
		t.Fatalf("expected line 2, got %d", entries[0].Line)
	}
}
