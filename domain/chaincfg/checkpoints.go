package chaincfg

// mainCheckpoints are the main network checkpoints, one every 10080 blocks.
var mainCheckpoints = []Checkpoint{
	{10080, newHashFromStr("00000000003ff9c4b806639ec4376cc9acafcdded0e18e9dbcc2fc42e8e72331")},
	{20160, newHashFromStr("0000000000009708ba48a52599295db8b9ec5d29148561e6ac850af765026528")},
	{28336, newHashFromStr("000000000000cc374a984c0deec9aed6fff764918e2cfd4be6670dd4d5292ccb")},
	{30240, newHashFromStr("0000000000004acbe1ed430d4a70d8a9ac62daa849e0bc708da52eeba8f39afc")},
	{40320, newHashFromStr("0000000000008ad31a52a3e749bd5c477aa3da18cc0acd3e3d944b5edc58e7bd")},
	{50400, newHashFromStr("0000000000000e2e3686f1eb852222ffff33a403947478bea143ed88c81fdd87")},
	{60480, newHashFromStr("000000000000029a0d1df882d1ddd15387855d5f904127c25359f8bdc6425928")},
	{70560, newHashFromStr("00000000000002b41cead9ce01c519a56998db8a715aae518f4b72403d6dc95a")},
	{80640, newHashFromStr("00000000000001c20353e3df80d35c8348bc07940d5e08d4740372ef45a4474f")},
	{90720, newHashFromStr("00000000000006c884dfe4e81504fd8eaf9d7d770a04dbdafb2cbf5ad7ab64c6")},
	{100800, newHashFromStr("00000000000004dc5badc155de4d07b4c09b9f3ecfdfdaf71576f3d2be192ea3")},
	{110880, newHashFromStr("0000000000000ef59288c01fcef9c26b0457bc93ca106d06bb10cd5dfad7fca9")},
	{120960, newHashFromStr("00000000000002968c68497ec2a7ec6b5030202dbf874126a65e437f53c03bea")},
	{131040, newHashFromStr("0000000000000bf11095c39e143ed02508132e48e040db791a0e7ed73378e7ed")},
	{141120, newHashFromStr("000000000000016331fe98568de3673c7c983f10d4ceab0f75d928acc0378001")},
	{151200, newHashFromStr("000000000000047df778aaa84d03cf2d8f9b51ef530a7d3708bfd6a9e0dd5d41")},
	{161280, newHashFromStr("00000000000021b3611f18840adf738c4a0c8de1479f53721c29a899620a4064")},
	{171360, newHashFromStr("00000000000037920bd0a1f13c579ca7c6ade2ef56b19027dd4408c292e5882f")},
	{181440, newHashFromStr("00000000000001d49e7ad75303c6217d6205cd51d5c1cc494427418385976d44")},
	{191520, newHashFromStr("000000000000034be18ec2f1ca59bbc70d54a9cb10fc7230122297c037f441ee")},
	{201600, newHashFromStr("00000000000004bb0cc14b70f9fd72900a6839731892d959764dd89615a5535a")},
	{211680, newHashFromStr("00000000000000e1156dafc83bc94c1508fbaa2ec1b1440aeceac7dfc0944664")},
	{221760, newHashFromStr("00000000000000a7ca764843bedea1e8c7eb2e22390aca9d133caafcd0842ea1")},
	{231840, newHashFromStr("000000000000000d1e7c399c42e260076f541b1d41bb805af46994ce896befe7")},
	{241920, newHashFromStr("000000000000007f4809ec08659c88598624743896e8620d4a7ebb36ede698f9")},
	{252000, newHashFromStr("00000000000000437687524302491d9aead11eb0090a5c451a4dbe6f85d4fbe1")},
	{262080, newHashFromStr("000000000000001332e59516a8156b56de7f7ca804238402732f7de4470da1a0")},
	{272160, newHashFromStr("000000000000002781d74d59a2e0edaf3b14b5435d8de67c1ed7b547e5f67752")},
	{282240, newHashFromStr("00000000000000b852854b82afcff8caf86fc2f392b9e4a4814bf47977813fc1")},
	{292320, newHashFromStr("000000000000140206e6fe913172634efa63c3928b0305052bfe4078f1a636fd")},
	{302400, newHashFromStr("000000000000114100284febd7d76aadf7522062dabf611c73f4f9b44db72c35")},
}
