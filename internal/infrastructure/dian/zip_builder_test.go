package dian_test

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	infradian "github.com/jfacosta/facturapos-api/internal/infrastructure/dian"
)

func TestDIANFilenames_NITLimpio(t *testing.T) {
	company := &entity.Company{NIT: "900999999", DV: "4"}
	inv := &entity.Invoice{FullNumber: "SETP000001"}

	xmlName, zipName := infradian.DIANFilenames(company, inv)
	assert.Equal(t, "900999999SETP000001.xml", xmlName)
	assert.Equal(t, "900999999SETP000001.zip", zipName)
}

func TestDIANFilenames_NITConSeparadores(t *testing.T) {
	// El NIT a veces llega con puntos o con el DV pegado; el nombre de
	// archivo solo lleva los dígitos del NIT, sin DV.
	cases := []struct {
		nit  string
		want string
	}{
		{"900.999.999", "900999999SETP000001.zip"},
		{"900999999-4", "900999999SETP000001.zip"},
		{" 900999999 ", "900999999SETP000001.zip"},
	}
	inv := &entity.Invoice{FullNumber: "SETP000001"}
	for _, tc := range cases {
		_, zipName := infradian.DIANFilenames(&entity.Company{NIT: tc.nit}, inv)
		assert.Equal(t, tc.want, zipName, "NIT %q", tc.nit)
	}
}

func TestCompressXMLToZip_UnSoloArchivo(t *testing.T) {
	xmlBytes := []byte(`<?xml version="1.0" encoding="UTF-8"?><Invoice/>`)

	zipBytes, err := infradian.CompressXMLToZip(xmlBytes, "900999999SETP000001.xml")
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1, "la DIAN exige un único archivo dentro del ZIP")
	assert.Equal(t, "900999999SETP000001.xml", zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, xmlBytes, got, "el XML debe sobrevivir intacto al empaquetado")
}
