package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, path, source string) *FileResult {
	t.Helper()
	result, err := New().ParseFile(context.Background(), path, []byte(source))
	require.NoError(t, err)
	return result
}

func importBySpecifier(t *testing.T, result *FileResult, specifier string) ImportRecord {
	t.Helper()
	for _, imp := range result.Imports {
		if imp.Specifier == specifier {
			return imp
		}
	}
	t.Fatalf("no import with specifier %q", specifier)
	return ImportRecord{}
}

func exportByName(t *testing.T, result *FileResult, name string) ExportRecord {
	t.Helper()
	for _, exp := range result.Exports {
		if exp.Name == name {
			return exp
		}
	}
	t.Fatalf("no export named %q", name)
	return ExportRecord{}
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	_, err := New().ParseFile(context.Background(), "styles.css", []byte("body {}"))
	require.Error(t, err)
}

func TestParseFile_StaticImports(t *testing.T) {
	result := parseSource(t, "app.ts", `
import React from 'react';
import * as path from 'node:path';
import { render, screen } from '@testing-library/react';
import type { Config } from './config';
import './side-effect';
`)
	require.Len(t, result.Imports, 5)

	react := importBySpecifier(t, result, "react")
	assert.False(t, react.Internal)
	assert.Equal(t, "react", react.Package)
	assert.Equal(t, []string{DefaultName}, react.Names)

	nodePath := importBySpecifier(t, result, "node:path")
	assert.False(t, nodePath.Internal)
	assert.Equal(t, []string{NamespaceAll}, nodePath.Names)

	testingLib := importBySpecifier(t, result, "@testing-library/react")
	assert.Equal(t, "@testing-library/react", testingLib.Package)
	assert.Equal(t, []string{"render", "screen"}, testingLib.Names)

	config := importBySpecifier(t, result, "./config")
	assert.True(t, config.Internal)
	assert.True(t, config.TypeOnly)
	assert.Equal(t, []string{"Config"}, config.Names)

	sideEffect := importBySpecifier(t, result, "./side-effect")
	assert.True(t, sideEffect.Internal)
	assert.Empty(t, sideEffect.Names)
}

func TestParseFile_ScopedPackageSubpath(t *testing.T) {
	result := parseSource(t, "a.ts", `
import { Worker } from '@aws-sdk/client-s3/internals';
import fp from 'lodash/fp';
`)
	assert.Equal(t, "@aws-sdk/client-s3", importBySpecifier(t, result, "@aws-sdk/client-s3/internals").Package)
	assert.Equal(t, "lodash", importBySpecifier(t, result, "lodash/fp").Package)
}

func TestParseFile_ImportAlias(t *testing.T) {
	// The pulled name is the target's exported name, not the local alias.
	result := parseSource(t, "a.ts", `import { original as renamed } from './source';`)
	assert.Equal(t, []string{"original"}, importBySpecifier(t, result, "./source").Names)
}

func TestParseFile_DynamicImportAndRequire(t *testing.T) {
	result := parseSource(t, "lazy.ts", `
export async function load() {
  const mod = await import('./heavy');
  return mod;
}
const fs = require('fs');
const { join, resolve } = require('path');
`)
	heavy := importBySpecifier(t, result, "./heavy")
	assert.True(t, heavy.Dynamic)
	assert.True(t, heavy.Internal)
	assert.Equal(t, []string{NamespaceAll}, heavy.Names)

	fs := importBySpecifier(t, result, "fs")
	assert.False(t, fs.Dynamic)
	assert.Equal(t, []string{NamespaceAll}, fs.Names)

	path := importBySpecifier(t, result, "path")
	assert.Equal(t, []string{"join", "resolve"}, path.Names)
}

func TestParseFile_NonLiteralDynamicImportIgnored(t *testing.T) {
	result := parseSource(t, "a.ts", `
const name = './plugin';
async function load() { return import(name); }
`)
	assert.Empty(t, result.Imports)
}

func TestParseFile_DeclarationExports(t *testing.T) {
	result := parseSource(t, "lib.ts", `
/** Formats a user for display. */
export function formatUser(user: User): string { return user.name; }

export class UserService {
  private repo: Repo;
  static instance: UserService;
  findById(id: string): User { return this.repo.get(id); }
}

export interface User { name: string }
export type UserID = string;
export enum Role { Admin = 'admin', Guest = 'guest' }
export const MAX_USERS: number = 100;
export let counter = 0;
`)
	format := exportByName(t, result, "formatUser")
	assert.Equal(t, KindFunction, format.Kind)
	assert.Equal(t, "Formats a user for display.", format.Doc)
	assert.Equal(t, "function formatUser(user: User): string", format.Signature)

	service := exportByName(t, result, "UserService")
	assert.Equal(t, KindClass, service.Kind)
	require.Len(t, service.Members, 3)
	assert.Equal(t, Member{Name: "repo", Kind: "field", Visibility: "private"}, service.Members[0])
	assert.Equal(t, Member{Name: "instance", Kind: "field", Visibility: "public", Static: true}, service.Members[1])
	assert.Equal(t, Member{Name: "findById", Kind: "method", Visibility: "public"}, service.Members[2])

	assert.Equal(t, KindInterface, exportByName(t, result, "User").Kind)
	assert.Equal(t, KindType, exportByName(t, result, "UserID").Kind)

	role := exportByName(t, result, "Role")
	assert.Equal(t, KindEnum, role.Kind)
	require.Len(t, role.Members, 2)
	assert.Equal(t, "Admin", role.Members[0].Name)
	assert.Equal(t, "enumMember", role.Members[0].Kind)

	assert.Equal(t, KindConst, exportByName(t, result, "MAX_USERS").Kind)
	assert.Equal(t, KindVariable, exportByName(t, result, "counter").Kind)
}

func TestParseFile_DefaultExports(t *testing.T) {
	named := parseSource(t, "a.ts", `export default function main() {}`)
	exp := exportByName(t, named, "main")
	assert.True(t, exp.Default)
	assert.Equal(t, KindDefault, exp.Kind)

	anonymous := parseSource(t, "b.ts", `export default { port: 3000 };`)
	require.Len(t, anonymous.Exports, 1)
	assert.Equal(t, DefaultName, anonymous.Exports[0].Name)
	assert.True(t, anonymous.Exports[0].Default)

	identifier := parseSource(t, "c.ts", `
const app = createApp();
export default app;
`)
	exp = exportByName(t, identifier, "app")
	assert.True(t, exp.Default)
	assert.False(t, exp.ReExport)
}

func TestParseFile_ReExports(t *testing.T) {
	result := parseSource(t, "index.ts", `
export { UserService, UserRepo as Repo } from './services';
export * from './types';
export * as helpers from './helpers';
`)
	services := importBySpecifier(t, result, "./services")
	assert.Equal(t, []string{"UserService", "UserRepo"}, services.Names)

	userService := exportByName(t, result, "UserService")
	assert.True(t, userService.ReExport)
	repo := exportByName(t, result, "Repo")
	assert.True(t, repo.ReExport)

	// Bare star re-export records only the edge.
	types := importBySpecifier(t, result, "./types")
	assert.Equal(t, []string{NamespaceAll}, types.Names)

	helpers := exportByName(t, result, "helpers")
	assert.True(t, helpers.ReExport)
}

func TestParseFile_ImportThenExport(t *testing.T) {
	result := parseSource(t, "index.ts", `
import { parse } from './parse';
const local = 1;
export { parse, local };
`)
	assert.True(t, exportByName(t, result, "parse").ReExport)
	assert.False(t, exportByName(t, result, "local").ReExport)
}

func TestParseFile_TSXAndJavaScript(t *testing.T) {
	tsx := parseSource(t, "Button.tsx", `
import React from 'react';
export function Button() { return <button>go</button>; }
`)
	assert.Equal(t, KindFunction, exportByName(t, tsx, "Button").Kind)

	js := parseSource(t, "util.js", `
export const helper = () => 1;
export default helper;
`)
	assert.Equal(t, KindConst, exportByName(t, js, "helper").Kind)
}

func TestParseFile_Positions(t *testing.T) {
	result := parseSource(t, "a.ts", "import x from './x';\nexport const y = 1;\n")
	require.Len(t, result.Imports, 1)
	assert.Equal(t, Position{Line: 0, Col: 0}, result.Imports[0].Pos)
	require.Len(t, result.Exports, 1)
	assert.Equal(t, 1, result.Exports[0].Pos.Line)
}
