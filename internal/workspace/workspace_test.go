package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	cty "github.com/zclconf/go-cty/cty"
)

const mainTF = `
variable "region" {
  default = "eu-west-1"
}

variable "replicas" {
  type    = number
  default = 2
}

variable "token" {
  default   = "s3cr3t"
  sensitive = true
}

variable "zones" {
  default = ["a", "b"]
}

locals {
  name   = "app-${var.region}"
  label  = upper(local.name)
  broken = local.missing
}

resource "aws_instance" "web" {
  ami = "ami-123"
}

resource "aws_instance" "db" {
  ami = "ami-456"
}

data "aws_ami" "ubuntu" {}

module "net" {
  source = "./net"
}

output "name" {
  value = local.name
}
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func loadFixture(t *testing.T, opts Options) *Workspace {
	t.Helper()
	ws, err := Load(context.Background(), opts)
	if ws == nil {
		t.Fatalf("Load returned nil workspace (err %v)", err)
	}
	return ws
}

func TestLoadInspectsModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.tf", mainTF)
	ws := loadFixture(t, Options{Dir: dir, Name: "staging"})

	if got := ws.Variables["region"]; !got.RawEquals(cty.StringVal("eu-west-1")) {
		t.Fatalf("region: %#v", got)
	}
	if !ws.Variables["token"].IsMarked() {
		t.Fatalf("sensitive variable should be marked")
	}
	if got := ws.Variables["zones"].LengthInt(); got != 2 {
		t.Fatalf("zones length: %d", got)
	}
	if !reflect.DeepEqual(ws.Managed["aws_instance"], []string{"db", "web"}) {
		t.Fatalf("managed: %v", ws.Managed)
	}
	if !reflect.DeepEqual(ws.Data["aws_ami"], []string{"ubuntu"}) {
		t.Fatalf("data: %v", ws.Data)
	}
	if !reflect.DeepEqual(ws.Modules, []string{"net"}) || !reflect.DeepEqual(ws.Outputs, []string{"name"}) {
		t.Fatalf("modules %v outputs %v", ws.Modules, ws.Outputs)
	}
	if ws.Name != "staging" {
		t.Fatalf("name: %q", ws.Name)
	}
}

func TestLoadEvaluatesLocals(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.tf", mainTF)
	ws, err := Load(context.Background(), Options{Dir: dir})
	if err == nil {
		t.Fatalf("expected an error for local.broken")
	}
	if got := ws.Locals["name"]; !got.RawEquals(cty.StringVal("app-eu-west-1")) {
		t.Fatalf("name: %#v", got)
	}
	if got := ws.Locals["label"]; !got.RawEquals(cty.StringVal("APP-EU-WEST-1")) {
		t.Fatalf("label: %#v", got)
	}
	if got := ws.Locals["broken"]; got.IsKnown() {
		t.Fatalf("broken local should be unknown, got %#v", got)
	}
}

func TestTFVarsOverrideDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.tf", mainTF)
	writeFile(t, dir, "terraform.tfvars", "region = \"us-east-1\"\ntoken = \"other\"\n")
	writeFile(t, dir, "b.auto.tfvars", `replicas = 5`)
	writeFile(t, dir, "a.auto.tfvars.json", `{"replicas": 3}`)
	writeFile(t, dir, "extra.tfvars", `replicas = 9`)

	ws := loadFixture(t, Options{Dir: dir})
	if got := ws.Variables["region"]; !got.RawEquals(cty.StringVal("us-east-1")) {
		t.Fatalf("region: %#v", got)
	}
	if !ws.Variables["token"].IsMarked() {
		t.Fatalf("tfvars value for a sensitive variable should stay marked")
	}
	if got := ws.Variables["replicas"]; !got.RawEquals(cty.NumberIntVal(5)) {
		t.Fatalf("auto tfvars in lexical order: %#v", got)
	}
	if got := ws.Locals["name"]; !got.RawEquals(cty.StringVal("app-us-east-1")) {
		t.Fatalf("locals should see tfvars: %#v", got)
	}

	ws = loadFixture(t, Options{Dir: dir, VarFiles: []string{"extra.tfvars"}})
	if got := ws.Variables["replicas"]; !got.RawEquals(cty.NumberIntVal(9)) {
		t.Fatalf("explicit var file last: %#v", got)
	}
}

func TestBindings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.tf", mainTF)
	ws := loadFixture(t, Options{Dir: dir, Name: "prod"})
	b := ws.Bindings()
	for _, name := range []string{"var", "local", "module", "data", "path", "terraform", "aws_instance"} {
		if _, ok := b[name]; !ok {
			t.Fatalf("missing binding %q", name)
		}
	}
	if got := b["terraform"].GetAttr("workspace"); !got.RawEquals(cty.StringVal("prod")) {
		t.Fatalf("terraform.workspace: %#v", got)
	}
	if !b["aws_instance"].Type().HasAttribute("web") {
		t.Fatalf("aws_instance.web should resolve")
	}
	if !b["data"].GetAttr("aws_ami").Type().HasAttribute("ubuntu") {
		t.Fatalf("data.aws_ami.ubuntu should resolve")
	}
}

func TestLoadEmptyDir(t *testing.T) {
	ws, err := Load(context.Background(), Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("empty dir: %v", err)
	}
	if len(ws.Variables) != 0 {
		t.Fatalf("variables: %v", ws.Variables)
	}
	if _, ok := ws.Bindings()["var"]; !ok {
		t.Fatalf("var should always be bound")
	}
}

func TestWorkspaceNameFromEnvironmentFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TF_WORKSPACE", "")
	if err := os.MkdirAll(filepath.Join(dir, ".terraform"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, ".terraform"), "environment", "blue\n")
	if got := workspaceName(dir, ""); got != "blue" {
		t.Fatalf("got %q", got)
	}
	t.Setenv("TF_WORKSPACE", "green")
	if got := workspaceName(dir, ""); got != "green" {
		t.Fatalf("got %q", got)
	}
	if got := workspaceName(t.TempDir(), ""); got != "green" {
		t.Fatalf("got %q", got)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	got, err := Resolve(ctx, dir, "")
	if err != nil || got != dir {
		t.Fatalf("local: %q %v", got, err)
	}
	got, err = Resolve(ctx, "file://"+dir, "")
	if err != nil || got != dir {
		t.Fatalf("file url: %q %v", got, err)
	}
	if _, err := Resolve(ctx, "hashicorp/consul/aws", ""); !errors.Is(err, ErrRegistrySource) {
		t.Fatalf("registry: %v", err)
	}
	if _, err := Resolve(ctx, "", ""); err == nil {
		t.Fatalf("empty source should fail")
	}
	if _, err := Resolve(ctx, "git::https://example.com/repo.git", ""); err == nil {
		t.Fatalf("remote without cache dir should fail")
	}

	cache := t.TempDir()
	src := "git::https://example.com/repo.git"
	cached := filepath.Join(cache, fingerprint(src))
	if err := os.MkdirAll(cached, 0o755); err != nil {
		t.Fatal(err)
	}
	got, err = Resolve(ctx, src, cache)
	if err != nil || got != cached {
		t.Fatalf("cached: %q %v", got, err)
	}
}

func TestGoToCty(t *testing.T) {
	v, err := goToCty(map[string]any{"a": []any{"x", true}, "n": float64(2)})
	if err != nil {
		t.Fatalf("goToCty: %v", err)
	}
	if !v.GetAttr("n").RawEquals(cty.NumberFloatVal(2)) {
		t.Fatalf("n: %#v", v.GetAttr("n"))
	}
	if v.GetAttr("a").LengthInt() != 2 {
		t.Fatalf("a: %#v", v.GetAttr("a"))
	}
	if _, err := goToCty(struct{}{}); err == nil {
		t.Fatalf("struct should be rejected")
	}
}

const stateJSON = `{
  "version": 4,
  "serial": 3,
  "lineage": "3f1c",
  "resources": [
    {"mode": "managed", "type": "aws_instance", "name": "web",
     "instances": [{"attributes": {"id": "i-1", "tags": {"Name": "web"}}}]},
    {"mode": "managed", "type": "aws_instance", "name": "db",
     "instances": [
       {"index_key": 1, "attributes": {"id": "i-3"}},
       {"index_key": 0, "attributes": {"id": "i-2"}}
     ]},
    {"module": "module.net", "mode": "managed", "type": "aws_vpc", "name": "main",
     "instances": [{"attributes": {"id": "vpc-1"}}]}
  ]
}`

func TestStateValuesBound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.tf", mainTF)
	writeFile(t, dir, "terraform.tfstate", stateJSON)
	ws := loadFixture(t, Options{Dir: dir})
	b := ws.Bindings()

	web := b["aws_instance"].GetAttr("web")
	if got := web.GetAttr("id"); !got.RawEquals(cty.StringVal("i-1")) {
		t.Fatalf("web.id: %#v", got)
	}
	if got := web.GetAttr("tags").GetAttr("Name"); !got.RawEquals(cty.StringVal("web")) {
		t.Fatalf("web.tags.Name: %#v", got)
	}
	db := b["aws_instance"].GetAttr("db")
	if db.LengthInt() != 2 || !db.Index(cty.NumberIntVal(0)).GetAttr("id").RawEquals(cty.StringVal("i-2")) {
		t.Fatalf("db: %#v", db)
	}
	if b["data"].GetAttr("aws_ami").GetAttr("ubuntu").IsKnown() {
		t.Fatalf("data source missing from state should be unknown")
	}
	if _, ok := ws.State[resourceKey("managed", "aws_vpc", "main")]; ok {
		t.Fatalf("child module resources should not be bound at the root")
	}
}

func TestExplicitStatePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.tf", mainTF)
	other := t.TempDir()
	writeFile(t, other, "prod.tfstate", stateJSON)
	ws := loadFixture(t, Options{Dir: dir, StatePath: filepath.Join(other, "prod.tfstate")})
	if got := ws.Bindings()["aws_instance"].GetAttr("web").GetAttr("id"); !got.RawEquals(cty.StringVal("i-1")) {
		t.Fatalf("web.id: %#v", got)
	}
}

func TestStateVersionChecked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.tfstate")
	if err := os.WriteFile(path, []byte(`{"version": 3, "modules": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readState(path); err == nil {
		t.Fatalf("version 3 state should be rejected")
	}
}
